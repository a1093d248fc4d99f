package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/trade-hire/internal/config"
	"github.com/jonathan/trade-hire/internal/server"
)

var tokenUser string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the form endpoints",
	Long:  "Issue a bearer token signed with JWT_SECRET. Intended for local development against a server started with the same secret.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		token, err := issueToken(tokenUser)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id to issue the token for (default: a new random id)")
	rootCmd.AddCommand(tokenCmd)
}

func issueToken(user string) (string, error) {
	jwtCfg, err := config.LoadJWTConfig()
	if err != nil {
		return "", err
	}
	if jwtCfg == nil {
		return "", fmt.Errorf("JWT_SECRET environment variable is required")
	}

	id := uuid.New()
	if user != "" {
		if id, err = uuid.Parse(user); err != nil {
			return "", fmt.Errorf("invalid --user: %w", err)
		}
	}
	return server.NewJWTService(jwtCfg).GenerateToken(id)
}
