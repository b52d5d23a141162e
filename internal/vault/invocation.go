package vault

import (
	"os"
	"strings"
)

// DefaultProgram is the external tool that moves files between backends.
const DefaultProgram = "rsync"

// DefaultExclude keeps Finder metadata out of the transfer at any depth.
const DefaultExclude = "**/*.DS_Store*"

// Invocation is one pass of the external sync tool. Args holds the complete
// argument list, Source and Destination included, ready for exec.
type Invocation struct {
	Program     string   `json:"program"`
	Args        []string `json:"args"`
	Source      string   `json:"source"`
	Destination string   `json:"destination"`

	flags []string
}

func newInvocation(program string, flags []string, src, dst string) Invocation {
	args := make([]string, 0, len(flags)+2)
	args = append(args, flags...)
	args = append(args, src, dst)
	return Invocation{
		Program:     program,
		Args:        args,
		Source:      src,
		Destination: dst,
		flags:       flags,
	}
}

// Reverse returns the same invocation with source and destination swapped.
func (i Invocation) Reverse() Invocation {
	return newInvocation(i.Program, i.flags, i.Destination, i.Source)
}

// String renders the invocation as a single-quoted shell command. Only used
// for display.
func (i Invocation) String() string {
	parts := make([]string, 0, len(i.Args)+1)
	parts = append(parts, i.Program)
	for _, arg := range i.Args {
		if strings.HasPrefix(arg, "-") && !strings.ContainsAny(arg, " *'\"") {
			parts = append(parts, arg)
			continue
		}
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// contentsOf appends exactly one trailing separator so the tool copies the
// directory's contents rather than the directory itself.
func contentsOf(path string) string {
	sep := string(os.PathSeparator)
	return strings.TrimRight(path, sep) + sep
}
