package main

import (
	"database/sql"

	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", database.RunMigrations),
		migrateSubcommand("down", "Roll back the most recent migration", database.RollbackMigration),
		migrateSubcommand("status", "Show which migrations are applied", database.MigrationStatus),
	)
	return cmd
}

func migrateSubcommand(use, short string, run func(*sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			return run(db.DB.DB)
		},
	}
}
