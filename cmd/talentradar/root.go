package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/talentradar/internal/config"
	"github.com/okian/talentradar/pkg/logger"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "talentradar",
		Short:         "Score and enrich engineering candidates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if cfgPath != "" {
				return os.Setenv(config.EnvConfig, cfgPath)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file (overrides "+config.EnvConfig+")")

	root.AddCommand(newServeCmd(), newEnrichCmd(), newScoreCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// setup loads configuration and initialises the global logger from it.
// Logs go to output, a zap sink such as "stdout" or "stderr".
func setup(ctx context.Context, output string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitWith(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: output}); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, logger.Get(), nil
}
