package lastmod

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultIgnorePrefixes are base-name prefixes of Finder metadata and editor
// temp files. Entries starting with them never count towards a timestamp.
var DefaultIgnorePrefixes = []string{
	".DS_Store",
	"~",
}

// Ignore decides which directory entries are left out of a walk.
type Ignore struct {
	prefixes []string
	patterns []string
}

// NewIgnore builds an Ignore from base-name prefixes and doublestar patterns.
// Patterns follow rsync exclude anchoring: a leading "/" anchors the pattern
// at the walk root, otherwise it may match the trailing path elements at any
// depth, so "*.tmp" matches "a/b/c.tmp". A trailing "/" is dropped.
// Duplicates are dropped.
func NewIgnore(prefixes []string, patterns []string) (*Ignore, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(strings.Trim(p, "/")) {
			return nil, fmt.Errorf("bad ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	return &Ignore{
		prefixes: uniq(prefixes),
		patterns: uniq(patterns),
	}, nil
}

// DefaultIgnore returns an Ignore with DefaultIgnorePrefixes and no patterns.
func DefaultIgnore() *Ignore {
	return &Ignore{prefixes: uniq(DefaultIgnorePrefixes)}
}

// Prefixes returns the configured prefixes in insertion order.
func (i *Ignore) Prefixes() []string {
	return append([]string(nil), i.prefixes...)
}

// Patterns returns the configured patterns in insertion order.
func (i *Ignore) Patterns() []string {
	return append([]string(nil), i.patterns...)
}

// Match reports whether relPath (relative to the walk root) is excluded.
func (i *Ignore) Match(relPath string) bool {
	if i == nil {
		return false
	}
	slashed := filepath.ToSlash(relPath)
	name := filepath.Base(relPath)
	for _, prefix := range i.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, pattern := range i.patterns {
		if matchAnchored(pattern, slashed) {
			return true
		}
	}
	return false
}

// matchAnchored tries pattern against path and, unless the pattern is rooted,
// against every suffix of path that starts at an element boundary.
func matchAnchored(pattern, path string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	if rooted := strings.TrimPrefix(pattern, "/"); rooted != pattern {
		// patterns were validated in NewIgnore
		ok, _ := doublestar.Match(rooted, path)
		return ok
	}

	for {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		_, rest, found := strings.Cut(path, "/")
		if !found {
			return false
		}
		path = rest
	}
}

func uniq(values []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen.Contains(v) {
			continue
		}
		seen.Add(v)
		out = append(out, v)
	}
	return out
}
