package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"digitprep/internal/logging"
	"digitprep/internal/prep"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "digitprep",
		Short:         "Prepare the Speech Commands digit subset",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}

func runPipeline(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	reporter := newConsoleReporter(out, cmd.ErrOrStderr())
	result, err := prep.Run(runCtx, cfg, prep.Options{Logger: logger, Reporter: reporter})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scanned %d clips, rejected %d, in %s\n",
		result.Scanned, result.RejectedTotal(), result.Elapsed.Round(time.Millisecond))
	if !result.Cleanup.OK() {
		fmt.Fprintf(out, "Warning: %d path(s) of the original dataset could not be removed\n", len(result.Cleanup.Errors))
	}
	return nil
}
