package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memexhq/memex/pkg/config"
	"github.com/memexhq/memex/pkg/server/middleware"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token <userid>",
	Short: "Issue an API token for a user",
	Long: `Issue a signed bearer token for the given userid.

The token is signed with MEMEX_JWT_SECRET and expires after the configured
auth_token_ttl. Pass it in the Authorization header:

  Authorization: Bearer <token>

Example:
  memexctl token acct:alice@example.com`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userid := args[0]

		jwtSecret, ok := os.LookupEnv("MEMEX_JWT_SECRET")
		if !ok || jwtSecret == "" {
			fmt.Fprintln(os.Stderr, "MEMEX_JWT_SECRET environment variable is required")
			os.Exit(1)
		}

		auth := middleware.NewTokenAuthenticator([]byte(jwtSecret))
		token, err := auth.IssueToken(userid, config.Get().TokenTTL())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
