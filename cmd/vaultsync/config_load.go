package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vaultsync/vaultsync/internal/config"
	"github.com/vaultsync/vaultsync/internal/utils"
)

var (
	home, _ = os.UserHomeDir()

	// config keys bound to root persistent flags of the same name
	flagKeys = map[string]string{
		"vault":     "vault",
		"program":   "program",
		"excludes":  "exclude",
		"env_file":  "env-file",
		"workers":   "workers",
		"max_depth": "max-depth",
		"log_file":  "log-file",
		"dry_run":   "dry-run",
		"verbose":   "verbose",
	}
)

// resolveConfigPath determines which config file path to use, honoring (in order):
// 1) An explicitly set --config flag
// 2) VAULTSYNC_CONFIG_PATH environment variable
// 3) Existing config files in common locations
// 4) The default path
func resolveConfigPath(cmd *cobra.Command) string {
	if cfgFlag := cmd.Root().PersistentFlags().Lookup("config"); cfgFlag != nil && cfgFlag.Changed {
		return cfgFlag.Value.String()
	}

	if envPath := os.Getenv("VAULTSYNC_CONFIG_PATH"); envPath != "" {
		return envPath
	}

	candidates := []string{
		config.DefaultConfigPath,
		filepath.Join(home, ".config", "vaultsync", "config.yaml"),
	}

	for _, candidate := range candidates {
		if utils.FileExists(candidate) {
			return candidate
		}
	}

	return config.DefaultConfigPath
}

// loadConfig merges defaults, the config file, VAULTSYNC_* environment
// variables and flags, in increasing order of precedence.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	v := viper.New()

	defaults := config.Default()
	v.SetDefault("vault", defaults.Vault)
	v.SetDefault("backends", defaults.Backends)
	v.SetDefault("program", defaults.Program)
	v.SetDefault("lock_file", defaults.LockFile)

	configPath := resolveConfigPath(cmd)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, fmt.Errorf("config read '%s': %w", configPath, err)
		}
	} else {
		slog.Debug("loaded config", "path", configPath)
	}

	// Bind flags to viper
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	// Set up environment variables
	v.SetEnvPrefix("VAULTSYNC")
	v.AutomaticEnv()

	if v.GetBool("verbose") {
		logLevel.Set(slog.LevelDebug)
	}

	cfg := &config.Config{
		Vault:          v.GetString("vault"),
		Backends:       stringList(v, "backends"),
		Program:        v.GetString("program"),
		Excludes:       v.GetStringSlice("excludes"),
		IgnorePrefixes: v.GetStringSlice("ignore_prefixes"),
		EnvFile:        v.GetString("env_file"),
		LockFile:       v.GetString("lock_file"),
		LogFile:        v.GetString("log_file"),
		Workers:        v.GetInt("workers"),
		MaxDepth:       v.GetInt("max_depth"),
		DryRun:         v.GetBool("dry_run"),
		Dirs:           args,
		Path:           configPath,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringList reads a list that may come from YAML or from an environment
// variable. Environment values are split on the OS list separator because
// backend paths routinely contain spaces.
func stringList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		return filepath.SplitList(raw)
	}
	return v.GetStringSlice(key)
}

// setupLogFile adds a plain text handler writing to path next to the
// terminal handler. The returned func closes the file.
func setupLogFile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	prev := slog.Default()
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(stderrHandler, fileHandler)))

	return func() {
		slog.SetDefault(prev)
		file.Close()
	}, nil
}
