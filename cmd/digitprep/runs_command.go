package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"digitprep/internal/ledger"
	"digitprep/internal/partition"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Status", "Started", "Duration", "Train", "Val", "Test", "Speakers", "Rejected"},
					buildRunRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to list (0 for all)")
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its placements per split",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				placements, err := store.Placements(cmd.Context(), run.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run: %s\n", run.ID)
				fmt.Fprintf(out, "Status: %s\n", run.Status)
				fmt.Fprintf(out, "Root: %s\n", run.RootDir)
				fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
				if run.FinishedAt != nil {
					fmt.Fprintf(out, "Duration: %s\n", formatDuration(run.Duration()))
				}
				if run.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", run.Error)
				}

				perSplit := make(map[partition.Split]int, len(partition.Splits))
				labels := make(map[partition.Split]map[string]struct{}, len(partition.Splits))
				for _, p := range placements {
					perSplit[p.Split]++
					if labels[p.Split] == nil {
						labels[p.Split] = make(map[string]struct{})
					}
					labels[p.Split][p.Label] = struct{}{}
				}
				rows := make([][]string, 0, len(partition.Splits))
				for _, split := range partition.Splits {
					rows = append(rows, []string{
						split.String(),
						strconv.Itoa(perSplit[split]),
						strconv.Itoa(len(labels[split])),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Split", "Placements", "Classes"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
					"total", strconv.Itoa(len(placements)), "",
				))
				return nil
			})
		},
	}
}

func buildRunRows(runs []ledger.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = formatDuration(run.Duration())
		}
		rows = append(rows, []string{
			run.ID,
			string(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			strconv.Itoa(run.Counts.Train),
			strconv.Itoa(run.Counts.Validation),
			strconv.Itoa(run.Counts.Test),
			strconv.Itoa(run.Counts.Speakers),
			strconv.Itoa(run.Counts.Rejected),
		})
	}
	return rows
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
