package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// newTestRoot returns a root command with the real persistent flags and the
// given subcommands, isolated from the package level rootCmd.
func newTestRoot(subs ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "vaultsync", SilenceErrors: true, SilenceUsage: true}
	addPersistentFlags(root)
	root.AddCommand(subs...)
	return root
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const fakeRsync = `#!/bin/sh
src=""
dst=""
for arg in "$@"; do
	src="$dst"
	dst="$arg"
done
echo "$src -> $dst" >> "$CALLS_LOG"
if [ "$src" = "$FAIL_SRC" ]; then
	echo "rsync: failed to set times on \"$dst\": Operation not permitted (1)" >&2
	exit 23
fi
echo "sending incremental file list"
`

// writeFakeRsync installs a shell script that records each call in the file
// named by CALLS_LOG and fails when its source equals FAIL_SRC.
func writeFakeRsync(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake rsync is a shell script")
	}
	path := filepath.Join(t.TempDir(), "rsync")
	require.NoError(t, os.WriteFile(path, []byte(fakeRsync), 0o755))
	return path
}

func readCalls(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
