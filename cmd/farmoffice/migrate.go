package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"farmoffice/internal/platform/db"
)

var errNoDatabase = errors.New("DATABASE_URL is required")

func newMigrateCmd(c *cli) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.DatabaseURL == "" {
				return errNoDatabase
			}
			if !statusOnly {
				if err := db.Migrate(c.cfg.DatabaseURL); err != nil {
					return err
				}
			}
			version, dirty, err := db.MigrationVersion(c.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("read migration version: %w", err)
			}
			c.logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the current schema version")
	return cmd
}
