package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vaultsync/vaultsync/internal/config"
	"github.com/vaultsync/vaultsync/internal/utils"
)

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the vaultsync config file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := utils.ResolvePath(resolveConfigPath(cmd))
			if err != nil {
				return err
			}
			if utils.FileExists(path) && !force {
				existing, err := config.LoadFromFile(path)
				if err != nil {
					return fmt.Errorf("config %s already exists and cannot be read (%v), use --force to overwrite", path, err)
				}
				return fmt.Errorf("config %s already exists (vault %q in %s), use --force to overwrite",
					path, existing.Vault, strings.Join(existing.Backends, ", "))
			}

			cfg := config.Default()
			cfg.Path = path
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", green.Render("Wrote"), path)
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}
