package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/vaultsync/vaultsync/internal/vault"
)

func init() {
	rootCmd.AddCommand(newPlanCmd())
}

func newPlanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan [dirA dirB]",
		Short: "Show which copy is newest and the sync commands that would run",
		Args:  pairArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			plan, err := buildPlan(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if asJSON {
				return writePlanJSON(cmd.OutOrStdout(), plan)
			}
			return writePlan(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	return cmd
}

func writePlanJSON(w io.Writer, plan *vault.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writePlan(w io.Writer, plan *vault.Plan) error {
	newest, oldest := plan.Ranked.Newest(), plan.Ranked.Oldest()

	fmt.Fprintf(w, "%s %s %s\n", cyan.Render("newest"), newest.Path, gray.Render("modified "+humanize.Time(newest.LastModified)))
	fmt.Fprintf(w, "%s %s %s\n", cyan.Render("oldest"), oldest.Path, gray.Render("modified "+humanize.Time(oldest.LastModified)))
	if plan.Ranked.Tied() {
		fmt.Fprintln(w, gray.Render("both copies report the same time, argument order kept"))
	}

	for i, inv := range plan.Invocations {
		if _, err := fmt.Fprintf(w, "%s %s\n", cyan.Render(fmt.Sprintf("pass %d", i+1)), inv.String()); err != nil {
			return err
		}
	}
	return nil
}
