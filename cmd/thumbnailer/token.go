package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiawesome/thumbnail-service/pkg/jwt"
)

func newTokenCmd(configFile *string) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for webhook callers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			if cfg.Server.Auth.Secret == "" {
				return errors.New("server.auth.secret is not configured")
			}

			manager, err := jwt.NewManager(cfg.Server.Auth.Secret, cfg.Server.Auth.Issuer)
			if err != nil {
				return err
			}
			token, err := manager.GenerateToken(subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "webhook", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, 0 for no expiry")
	return cmd
}
