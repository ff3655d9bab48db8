package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/goalsetter/internal/config"
	"github.com/templui/goalsetter/internal/service"
)

// TokenCmd mints a bearer token for local testing against the API.
func TokenCmd() *cobra.Command {
	var (
		userID string
		expiry time.Duration
	)

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}

			cfg := config.Load()
			auth := service.NewAuthService(cfg.JWTSecret, cfg.JWTIssuer)

			token, err := auth.GenerateJWT(userID, expiry)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	tokenCmd.Flags().StringVar(&userID, "user", "", "requester id to embed in the token")
	tokenCmd.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	return tokenCmd
}
