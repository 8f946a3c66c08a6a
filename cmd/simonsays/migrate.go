package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(flags)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			db, err := sqlite.NewDB(ctx, cfg.DB.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			applied, err := sqlite.MigrateUp(ctx, db)
			if err != nil {
				return err
			}
			current, err := sqlite.MigrationVersion(ctx, db)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name) //nolint:errcheck
			}
			fmt.Fprintf(out, "schema version %d\n", current) //nolint:errcheck
			return nil
		},
	}
}
