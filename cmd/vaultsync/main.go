package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/vaultsync/vaultsync/internal/config"
	"github.com/vaultsync/vaultsync/internal/version"
)

var (
	logLevel      = new(slog.LevelVar)
	stderrHandler = tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
)

var rootCmd = &cobra.Command{
	Use:   "vaultsync [dirA dirB]",
	Short: "Reconcile two copies of a notes vault with rsync",
	Long: `vaultsync finds which copy of the vault changed most recently, syncs it onto
the other copy, then syncs back so files that only exist in the older copy
are not lost.

Without arguments the configured backends joined with the vault name are used.`,
	Version:       version.Detailed(),
	Args:          pairArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}

		// all good now, errors from here on are not usage errors
		cmd.SilenceUsage = true

		closeLog, err := setupLogFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		if err := syncVault(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), green.Render("Success!"))
		return err
	},
}

func init() {
	addPersistentFlags(rootCmd)
}

func addPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", config.DefaultConfigPath, "vaultsync config file")
	flags.String("vault", config.DefaultVault, "Vault folder name inside each backend")
	flags.String("program", config.DefaultProgram, "Sync tool executable")
	flags.StringSlice("exclude", nil, "Extra exclude pattern (repeatable)")
	flags.String("env-file", "", "KEY=VALUE file added to the sync tool's environment")
	flags.Int("workers", 0, "Concurrent subtree walks (0 = number of CPUs)")
	flags.Int("max-depth", 0, "Fail when the vault is nested deeper than this (0 = unbounded)")
	flags.Bool("dry-run", false, "Ask the sync tool to report without changing files")
	flags.String("log-file", "", "Also write logs to this file")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
}

func main() {
	logLevel.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(stderrHandler))

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

func pairArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("expected no arguments or exactly two directories, got %d", len(args))
	}
	return nil
}
