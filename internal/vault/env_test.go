package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolEnv_NoFile(t *testing.T) {
	env, err := ToolEnv([]string{"HOME=/Users/me", "PATH=/usr/bin"}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HOME": "/Users/me", "PATH": "/usr/bin"}, env)
}

func TestToolEnv_FileOverrides(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "vaultsync.env")
	require.NoError(t, os.WriteFile(envFile, []byte("# rsync from homebrew\nPATH=/opt/homebrew/bin:/usr/bin\nRSYNC_RSH=\"ssh -q\"\n"), 0o644))

	env, err := ToolEnv([]string{"HOME=/Users/me", "PATH=/usr/bin"}, envFile)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"HOME":      "/Users/me",
		"PATH":      "/opt/homebrew/bin:/usr/bin",
		"RSYNC_RSH": "ssh -q",
	}, env)
}

func TestToolEnv_MissingFile(t *testing.T) {
	_, err := ToolEnv(nil, filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
