package command

// root.go defines the root command for the dareduel CLI.
// Global flags and shared helpers live here.

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dareduel/cmd/cli/authentication"
	"dareduel/cmd/cli/command/client"
)

var apiURL string // global flag for API server URL

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dareduel",
	Short: "dareduel - DareDuel Command Line Interface",
	Long: `dareduel is a tool to play DareDuel from the terminal. You can:
- Register and log in to your account
- Add friends by username search or 16-digit friend code
- Send dares, accept them with a number range, and pick your number
- Check your stats and the leaderboard
- Watch live events (friends coming online, dares resolving) as they happen

Use "dareduel <command> -h" to see all available commands.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8084", "API server URL")
}

// expiresAt converts a relative token lifetime in seconds to the unix
// timestamp stored alongside the credentials.
func expiresAt(expiresIn int64) int64 {
	return time.Now().Unix() + expiresIn
}

// authedClient builds an HTTP client carrying the stored access token,
// refreshing the token pair first when the access token has expired.
func authedClient() (*client.HTTPClient, *authentication.StoredCredentials, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, nil, fmt.Errorf("not logged in (run 'dareduel auth login'): %w", err)
	}

	httpClient := client.NewHTTPClient(apiURL)
	if creds.Expired() {
		refreshed, err := httpClient.RefreshToken(creds.RefreshToken)
		if err != nil {
			return nil, nil, fmt.Errorf("session expired, please login again: %w", err)
		}
		creds.AccessToken = refreshed.AccessToken
		creds.RefreshToken = refreshed.RefreshToken
		creds.ExpiresAt = refreshed.ExpiresAt
		if err := authentication.StoreTokens(creds); err != nil {
			return nil, nil, fmt.Errorf("failed to store refreshed tokens: %w", err)
		}
	}

	httpClient.SetToken(creds.AccessToken)
	return httpClient, creds, nil
}
