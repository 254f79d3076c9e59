package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "lineage/internal/jwt_token"
	"lineage/internal/platform/config"
)

// newTokenCmd mints an access token signed with the configured key, for
// local use against a running server.
func newTokenCmd() *cobra.Command {
	var (
		role    string
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			switch role {
			case jwttoken.RoleReader, jwttoken.RoleManager, jwttoken.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			userID := uuid.New()
			if subject != "" {
				if userID, err = uuid.Parse(subject); err != nil {
					return fmt.Errorf("invalid subject: %w", err)
				}
			}

			jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
			token, err := jwt.GenerateAccessToken(userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", jwttoken.RoleReader, "reader, manager or admin")
	cmd.Flags().StringVar(&subject, "subject", "", "user id to embed (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
