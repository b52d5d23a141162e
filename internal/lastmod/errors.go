package lastmod

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is matched by every error caused by a path that could not be
	// stat'd or listed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrMaxDepth is wrapped by a PathError when a walk descends below the
	// configured depth limit.
	ErrMaxDepth = errors.New("maximum directory depth exceeded")
)

// PathError records the path that broke a resolution and the underlying cause.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func (e *PathError) Is(target error) bool {
	return target == ErrInvalidPath
}

func pathError(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}
