package main

import (
	"github.com/spf13/cobra"

	"herdbook/internal/domain/auth"
)

func (a *app) tokenCmd() *cobra.Command {
	var (
		userID string
		farmID string
		email  string
		roles  []string
		admin  bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local testing of the API",
		Long: `Token signs a short-lived access token with jwt_secret from the config, for
calling a development server. Production tokens come from the identity provider.`,
		Example: `  tagctl token --farm farm-1 --role manager`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := auth.NewJWTService(auth.DefaultJWTConfig(a.cfg.JWTSecret))
			tok, expiresAt, err := svc.GenerateAccessToken(userID, farmID, email, roles, admin)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{"token": tok, "expiresAt": expiresAt}, tok)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "cli", "user id")
	cmd.Flags().StringVar(&farmID, "farm", "", "farm id")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringArrayVar(&roles, "role", nil, "role (repeatable)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant access to every farm")
	return cmd
}
