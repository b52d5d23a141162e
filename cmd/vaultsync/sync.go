package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/vaultsync/vaultsync/internal/config"
	"github.com/vaultsync/vaultsync/internal/lastmod"
	"github.com/vaultsync/vaultsync/internal/vault"
	"github.com/vaultsync/vaultsync/internal/version"
)

func newResolver(cfg *config.Config) (*lastmod.Resolver, error) {
	prefixes := cfg.IgnorePrefixes
	if len(prefixes) == 0 {
		prefixes = lastmod.DefaultIgnorePrefixes
	}

	ignore, err := lastmod.NewIgnore(prefixes, cfg.Excludes)
	if err != nil {
		return nil, err
	}
	slog.Debug("timestamp walk ignore rules", "prefixes", ignore.Prefixes(), "patterns", ignore.Patterns())

	return lastmod.NewOSResolver(
		lastmod.WithIgnore(ignore),
		lastmod.WithWorkers(cfg.Workers),
		lastmod.WithMaxDepth(cfg.MaxDepth),
	), nil
}

func buildPlan(ctx context.Context, cfg *config.Config) (*vault.Plan, error) {
	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}

	builder := vault.NewBuilder(resolver, vault.BuilderOptions{
		Program:  cfg.Program,
		Excludes: cfg.Excludes,
		DryRun:   cfg.DryRun,
	})

	dirs := cfg.SyncDirs()
	return builder.Build(ctx, dirs[0], dirs[1])
}

// syncVault ranks both copies and runs the two sync passes. Nothing is
// executed unless both copies resolve cleanly.
func syncVault(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	logger := slog.With("run", uuid.NewString())
	logger.Info("vaultsync starting", "version", version.Short(), "config", cfg.Path)

	if cfg.LockFile != "" {
		lock := vault.NewLock(cfg.LockFile)
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("failed to release lock", "error", err)
			}
		}()
	}

	plan, err := buildPlan(ctx, cfg)
	if err != nil {
		if errors.Is(err, lastmod.ErrInvalidPath) {
			return fmt.Errorf("cannot rank vault copies, nothing synced: %w", err)
		}
		return err
	}

	newest, oldest := plan.Ranked.Newest(), plan.Ranked.Oldest()
	logger.Info("ranked vault copies",
		"newest", newest.Path,
		"newestModified", humanize.Time(newest.LastModified),
		"oldest", oldest.Path,
		"oldestModified", humanize.Time(oldest.LastModified),
		"tie", plan.Ranked.Tied(),
	)

	env, err := vault.ToolEnv(os.Environ(), cfg.EnvFile)
	if err != nil {
		return err
	}

	return vault.NewRunner(env).
		SetStdout(stdout).
		SetLogger(logger).
		Run(ctx, plan)
}
