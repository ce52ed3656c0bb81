package main

import (
	"fmt"

	"github.com/gatekeeper/kiosk-backend/internal/utils"
	"github.com/spf13/cobra"
)

func newSecretsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secrets",
		Short: "Generate JWT signing secrets for the .env file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "JWT_SECRET=%s\n", accessSecret)
			_, _ = fmt.Fprintf(out, "JWT_REFRESH_SECRET=%s\n", refreshSecret)
			return nil
		},
	}
}
