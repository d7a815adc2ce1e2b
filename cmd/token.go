package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"video-toolbox/infrastructure/auth"

	"github.com/spf13/cobra"
)

var (
	tokenUserID string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for a user",
	Long: `Mint an HS256 bearer token signed with auth.jwt_secret.

Example:
  video-toolbox token --user 7 --ttl 2h`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User ID to embed as user_id (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default auth.token_ttl)")
	tokenCmd.MarkFlagRequired("user")
}

// TokenMinter signs bearer tokens
type TokenMinter interface {
	Mint(userID string, ttl time.Duration) (string, error)
}

func runToken(cmd *cobra.Command, args []string) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or VTB_JWT_SECRET) is required to mint tokens")
	}

	ttl := tokenTTL
	if ttl == 0 {
		ttl = c.Auth.TokenTTL
	}

	return RunTokenWithDependencies(auth.NewIssuer(c.Auth.JWTSecret), tokenUserID, ttl, os.Stdout)
}

// RunTokenWithDependencies mints a token and prints it alone on a line
func RunTokenWithDependencies(minter TokenMinter, userID string, ttl time.Duration, output OutputWriter) error {
	token, err := minter.Mint(userID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(output, token)
	return nil
}
