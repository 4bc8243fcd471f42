package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"digitprep/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks without touching the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d preflight checks failed", len(failed), len(results))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func passLabel(passed bool) string {
	if passed {
		return "ok"
	}
	return "FAIL"
}
