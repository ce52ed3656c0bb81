package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gatekeeper/kiosk-backend/internal/database"
	"github.com/spf13/cobra"
)

func newPurgeTokensCmd() *cobra.Command {
	var revokedMaxAge time.Duration

	cmd := &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete expired refresh tokens and revoked ones older than --revoked-max-age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if revokedMaxAge < 0 {
				return fmt.Errorf("--revoked-max-age cannot be negative")
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			removed, err := database.NewRefreshTokenRepository(db).Cleanup(ctx, time.Now().Add(-revokedMaxAge))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d refresh tokens\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&revokedMaxAge, "revoked-max-age", 7*24*time.Hour, "keep revoked tokens this long for auditing")
	return cmd
}
