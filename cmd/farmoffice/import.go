package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"farmoffice/internal/domain/core"
	"farmoffice/internal/platform/db"
)

func newImportCmd(c *cli) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Load farms, services and workers from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			file, err := core.ParseImport(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "farms=%d services=%d workers=%d (dry run)\n", len(file.Farms), len(file.Services), len(file.Workers))
				return nil
			}
			if c.cfg.DatabaseURL == "" {
				return errNoDatabase
			}

			pool, err := db.Connect(cmd.Context(), c.cfg)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			result, err := core.Import(cmd.Context(), core.NewStore(pool), file)
			if err != nil {
				return err
			}
			c.logger.Info("import finished",
				zap.Int("farms", result.Farms),
				zap.Int("services", result.Services),
				zap.Int("workers", result.Workers),
				zap.Strings("skipped", result.Skipped),
			)
			fmt.Fprintf(out, "farms=%d services=%d workers=%d\n", result.Farms, result.Services, result.Workers)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(out, "skipped: %s\n", strings.Join(result.Skipped, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	return cmd
}
