// Package lastmod computes the most recent change instant of a file tree.
//
// A path's own instant is the newest of its modification, status change and
// creation times. A directory additionally takes the newest instant of every
// descendant that is not excluded by the configured Ignore. Nothing is cached:
// every call re-reads the tree.
package lastmod

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/djherbis/times"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Resolver walks a filesystem and reports last-modified instants.
type Resolver struct {
	fs       afero.Fs
	ignore   *Ignore
	workers  int
	maxDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIgnore replaces the default exclusion rules.
func WithIgnore(ignore *Ignore) Option {
	return func(r *Resolver) {
		if ignore != nil {
			r.ignore = ignore
		}
	}
}

// WithWorkers bounds how many subtrees of the root are walked concurrently.
// Values below 1 fall back to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMaxDepth makes walks fail with ErrMaxDepth below the given depth. Zero
// means unbounded.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth >= 0 {
			r.maxDepth = depth
		}
	}
}

// NewResolver returns a Resolver reading from fs.
func NewResolver(fs afero.Fs, opts ...Option) *Resolver {
	r := &Resolver{
		fs:      fs,
		ignore:  DefaultIgnore(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewOSResolver returns a Resolver over the host filesystem.
func NewOSResolver(opts ...Option) *Resolver {
	return NewResolver(afero.NewOsFs(), opts...)
}

type node struct {
	path  string
	depth int
}

// LastModified returns the newest change instant found at or below root.
// Any unreadable path aborts the walk with an error matching ErrInvalidPath.
func (r *Resolver) LastModified(ctx context.Context, root string) (time.Time, error) {
	root = filepath.Clean(root)

	info, err := r.fs.Stat(root)
	if err != nil {
		return time.Time{}, pathError("stat", root, err)
	}

	latest := newest(info)
	if !info.IsDir() {
		return latest, nil
	}

	children, err := r.children(root, root, 0)
	if err != nil {
		return time.Time{}, err
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)

	for _, child := range children {
		child := child
		eg.Go(func() error {
			t, err := r.walk(egCtx, root, child)
			if err != nil {
				return err
			}
			mu.Lock()
			if t.After(latest) {
				latest = t
			}
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return time.Time{}, err
	}

	slog.Debug("lastmod resolved", "path", root, "entries", len(children), "time", latest)
	return latest, nil
}

// walk reduces the subtree at start with an explicit stack.
func (r *Resolver) walk(ctx context.Context, root string, start node) (time.Time, error) {
	var latest time.Time
	stack := []node{start}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := r.fs.Stat(n.path)
		if err != nil {
			return time.Time{}, pathError("stat", n.path, err)
		}

		if t := newest(info); t.After(latest) {
			latest = t
		}

		if !info.IsDir() {
			continue
		}

		children, err := r.children(root, n.path, n.depth)
		if err != nil {
			return time.Time{}, err
		}
		stack = append(stack, children...)
	}

	return latest, nil
}

// children lists dir and returns the entries that survive the ignore rules.
func (r *Resolver) children(root, dir string, depth int) ([]node, error) {
	if r.maxDepth > 0 && depth >= r.maxDepth {
		return nil, pathError("walk", dir, ErrMaxDepth)
	}

	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, pathError("readdir", dir, err)
	}

	nodes := make([]node, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, pathError("walk", path, err)
		}
		if r.ignore.Match(rel) {
			continue
		}
		nodes = append(nodes, node{path: path, depth: depth + 1})
	}
	return nodes, nil
}

// newest picks the latest of the modification, change and birth times that
// the platform reports for info.
func newest(info os.FileInfo) time.Time {
	latest := info.ModTime()

	// in-memory filesystems carry no stat_t
	if info.Sys() == nil {
		return latest
	}

	ts := times.Get(info)
	if ts.HasChangeTime() && ts.ChangeTime().After(latest) {
		latest = ts.ChangeTime()
	}
	if ts.HasBirthTime() && ts.BirthTime().After(latest) {
		latest = ts.BirthTime()
	}
	return latest
}
