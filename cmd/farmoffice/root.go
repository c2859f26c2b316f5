package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"farmoffice/internal/platform/config"
	"farmoffice/internal/platform/logging"
)

// cli holds what every subcommand shares once the persistent pre-run has
// loaded configuration and built the logger.
type cli struct {
	envFiles []string
	cfg      config.Config
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "farmoffice",
		Short:         "Farm back office: workers, daily work logs and payroll",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.cfg = config.Load(c.envFiles...)
			logger, err := logging.New(c.cfg.Environment, c.cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			c.logger = logger
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "env files to load before the environment (default .env)")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newCreateUserCmd(c),
		newImportCmd(c),
	)
	return root
}
