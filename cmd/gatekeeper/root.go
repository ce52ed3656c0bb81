package main

import (
	"fmt"

	"github.com/gatekeeper/kiosk-backend/internal/config"
	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gatekeeper",
		Short:         "GateKeeper kiosk backend maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newSecretsCmd(),
		newPurgeTokensCmd(),
	)
	return root
}

// openDatabase connects using DATABASE_URL only
func openDatabase() (*database.PostgresDB, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}
