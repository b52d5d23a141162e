// Package vault decides the order in which two copies of a vault are
// reconciled and drives the external sync tool through both passes.
package vault

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// TimestampResolver reports the newest change instant at or below a path.
type TimestampResolver interface {
	LastModified(ctx context.Context, path string) (time.Time, error)
}

// Candidate is one backend copy of the vault with its resolved timestamp.
type Candidate struct {
	Path         string    `json:"path"`
	LastModified time.Time `json:"last_modified"`
}

// RankedPair orders two candidates newest first.
type RankedPair [2]Candidate

// Newest returns the more recently modified candidate.
func (p RankedPair) Newest() Candidate { return p[0] }

// Oldest returns the less recently modified candidate.
func (p RankedPair) Oldest() Candidate { return p[1] }

// Tied reports whether both candidates share the same timestamp. The order
// then follows the input order.
func (p RankedPair) Tied() bool {
	return p[0].LastModified.Equal(p[1].LastModified)
}

// Rank resolves a and b and returns them newest first. On a tie the input
// order is kept.
func Rank(ctx context.Context, resolver TimestampResolver, a, b string) (RankedPair, error) {
	ta, err := resolver.LastModified(ctx, a)
	if err != nil {
		return RankedPair{}, fmt.Errorf("resolve %s: %w", a, err)
	}
	tb, err := resolver.LastModified(ctx, b)
	if err != nil {
		return RankedPair{}, fmt.Errorf("resolve %s: %w", b, err)
	}

	first := Candidate{Path: a, LastModified: ta}
	second := Candidate{Path: b, LastModified: tb}
	if tb.After(ta) {
		first, second = second, first
	}
	return RankedPair{first, second}, nil
}

// Plan is the ordered pair of invocations for one reconciliation. The second
// invocation runs only if the first succeeds.
type Plan struct {
	Ranked      RankedPair    `json:"ranked"`
	Invocations [2]Invocation `json:"invocations"`
}

// String renders the plan as the equivalent chained shell command.
func (p *Plan) String() string {
	return p.Invocations[0].String() + " && " + p.Invocations[1].String()
}

// BuilderOptions tunes the generated invocations.
type BuilderOptions struct {
	// Program is the sync tool executable. Defaults to DefaultProgram.
	Program string
	// Excludes are extra exclude patterns passed to the tool after DefaultExclude.
	Excludes []string
	// DryRun asks the tool to report without changing anything.
	DryRun bool
}

// Builder turns two vault directories into a Plan.
type Builder struct {
	resolver TimestampResolver
	program  string
	flags    []string
}

// NewBuilder returns a Builder ranking directories with resolver.
func NewBuilder(resolver TimestampResolver, opts BuilderOptions) *Builder {
	program := opts.Program
	if program == "" {
		program = DefaultProgram
	}

	// archive + extended attributes, and remove what the source no longer has
	flags := []string{"-aE", "--delete"}
	if opts.DryRun {
		flags = append(flags, "--dry-run")
	}

	excludes := mapset.NewThreadUnsafeSet[string]()
	for _, pattern := range append([]string{DefaultExclude}, opts.Excludes...) {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || excludes.Contains(pattern) {
			continue
		}
		excludes.Add(pattern)
		flags = append(flags, "--exclude", pattern)
	}

	return &Builder{
		resolver: resolver,
		program:  program,
		flags:    flags,
	}
}

// Build ranks a and b and returns the two-pass plan: newest to oldest first,
// then back again so files only present in the older copy are pulled over.
func (b *Builder) Build(ctx context.Context, dirA, dirB string) (*Plan, error) {
	ranked, err := Rank(ctx, b.resolver, filepath.Clean(dirA), filepath.Clean(dirB))
	if err != nil {
		return nil, err
	}

	first := newInvocation(b.program, b.flags,
		contentsOf(ranked.Newest().Path),
		contentsOf(ranked.Oldest().Path),
	)

	return &Plan{
		Ranked:      ranked,
		Invocations: [2]Invocation{first, first.Reverse()},
	}, nil
}
