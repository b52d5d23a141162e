package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vaultsync/vaultsync/internal/utils"
	"gopkg.in/yaml.v3"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".vaultsync", "config.yaml")
	DefaultLockFile   = filepath.Join(home, ".vaultsync", "vaultsync.lock")
	DefaultVault      = "Notes"
	DefaultProgram    = "rsync"

	// DefaultBackends are the Google Drive folder and the iCloud container
	// Obsidian syncs into on macOS.
	DefaultBackends = []string{
		filepath.Join(home, "Google Drive"),
		filepath.Join(home, "Library", "Mobile Documents", "iCloud~md~obsidian", "Documents"),
	}
)

var (
	ErrNoVault       = errors.New("vault name is required")
	ErrVaultName     = errors.New("vault name must be a single path element")
	ErrBackendCount  = errors.New("exactly two backends are required")
	ErrSameBackend   = errors.New("both sides resolve to the same directory")
	ErrNegativeValue = errors.New("value must not be negative")
)

type Config struct {
	// Vault is the folder name shared by both backends.
	Vault string `yaml:"vault"`
	// Backends are the two storage roots holding a copy of the vault.
	Backends []string `yaml:"backends"`
	// Program is the sync tool executable.
	Program string `yaml:"program"`
	// Excludes are extra doublestar patterns skipped by both the timestamp
	// walk and the sync tool.
	Excludes []string `yaml:"excludes,omitempty"`
	// IgnorePrefixes replace the default base-name prefixes skipped by the
	// timestamp walk when set.
	IgnorePrefixes []string `yaml:"ignore_prefixes,omitempty"`
	EnvFile        string   `yaml:"env_file,omitempty"`
	LockFile       string   `yaml:"lock_file,omitempty"`
	LogFile        string   `yaml:"log_file,omitempty"`
	Workers        int      `yaml:"workers,omitempty"`
	MaxDepth       int      `yaml:"max_depth,omitempty"`

	// Dirs, when set, are used verbatim instead of Backends joined with Vault.
	Dirs   []string `yaml:"-"`
	DryRun bool     `yaml:"-"`
	Path   string   `yaml:"-"`
}

// Default returns the configuration the tool runs with when nothing is set.
func Default() *Config {
	return &Config{
		Vault:    DefaultVault,
		Backends: append([]string(nil), DefaultBackends...),
		Program:  DefaultProgram,
		LockFile: DefaultLockFile,
		Path:     DefaultConfigPath,
	}
}

// Validate normalizes paths and checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Program == "" {
		c.Program = DefaultProgram
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers: %w", ErrNegativeValue)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth: %w", ErrNegativeValue)
	}

	var err error
	if len(c.Dirs) > 0 {
		if c.Dirs, err = resolvePair(c.Dirs); err != nil {
			return fmt.Errorf("dirs: %w", err)
		}
	} else {
		if c.Vault == "" {
			return ErrNoVault
		}
		if c.Vault != filepath.Base(c.Vault) || strings.ContainsAny(c.Vault, `/\`) || c.Vault == ".." {
			return fmt.Errorf("%w: %q", ErrVaultName, c.Vault)
		}
		if c.Backends, err = resolvePair(c.Backends); err != nil {
			return fmt.Errorf("backends: %w", err)
		}
	}

	for _, p := range []*string{&c.EnvFile, &c.LockFile, &c.LogFile, &c.Path} {
		if *p == "" {
			continue
		}
		if *p, err = utils.ResolvePath(*p); err != nil {
			return err
		}
	}
	return nil
}

// SyncDirs returns the two directories to reconcile.
func (c *Config) SyncDirs() [2]string {
	if len(c.Dirs) == 2 {
		return [2]string{c.Dirs[0], c.Dirs[1]}
	}
	return [2]string{
		filepath.Join(c.Backends[0], c.Vault),
		filepath.Join(c.Backends[1], c.Vault),
	}
}

// Save writes the persisted fields as YAML.
func (c *Config) Save() error {
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.Path, data, 0o644)
}

// LoadFromFile reads a YAML config written by Save.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Path = path

	return cfg, nil
}

func resolvePair(paths []string) ([]string, error) {
	if len(paths) != 2 {
		return nil, fmt.Errorf("%w, got %d", ErrBackendCount, len(paths))
	}

	resolved := make([]string, 2)
	for i, p := range paths {
		abs, err := utils.ResolvePath(p)
		if err != nil {
			return nil, err
		}
		resolved[i] = abs
	}
	if resolved[0] == resolved[1] {
		return nil, fmt.Errorf("%w: %s", ErrSameBackend, resolved[0])
	}
	return resolved, nil
}
