package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"digitprep/internal/config"
	"digitprep/internal/manifest"
	"digitprep/internal/partition"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Lstat(target); err == nil {
					return fmt.Errorf("refusing to replace %s; pass --overwrite to regenerate it", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("inspect %s: %w", target, err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			cfg, _, _, err := config.Load(target)
			if err != nil {
				return fmt.Errorf("load generated config: %w", err)
			}
			printLayout(cmd.OutOrStdout(), target, cfg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

// initTarget resolves --path, falling back to the default config location.
func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

// printLayout shows where a run with cfg will read and write.
func printLayout(out io.Writer, configPath string, cfg *config.Config) {
	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintf(out, "Dataset directory: %s\n", cfg.DatasetDir())
	for _, split := range partition.Splits {
		fmt.Fprintf(out, "  %-10s %s\n", split.String()+":", filepath.Join(cfg.DatasetDir(), manifest.FileName(cfg.Manifests, split)))
	}
	fmt.Fprintf(out, "Run ledger: %s\n", cfg.Ledger.Path)
	fmt.Fprintln(out, "Edit paths.root_dir to move the dataset elsewhere.")
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, resolved, exists, err := config.Load(strings.TrimSpace(path))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Dataset directory: %s\n", cfg.DatasetDir())
			fmt.Fprintf(out, "Classes: %s\n", strings.Join(cfg.Filter.Classes, ", "))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
