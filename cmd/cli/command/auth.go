package command

// auth.go handles authentication commands for the dareduel CLI.

import (
	"fmt"

	"github.com/spf13/cobra"

	"dareduel/cmd/cli/authentication"
	"dareduel/cmd/cli/command/client"
	"dareduel/internal/microservices/http-api/dto"
)

// authCmd groups the authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the DareDuel API server. Supports registration, login, logout and whoami.`,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new DareDuel account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var request dto.RegisterRequest
		request.Username, _ = cmd.Flags().GetString("username")
		request.Password, _ = cmd.Flags().GetString("password")
		request.Email, _ = cmd.Flags().GetString("email")

		httpClient := client.NewHTTPClient(apiURL)
		response, err := httpClient.Register(&request)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		fmt.Println("✓ Registration successful! Please login to continue.")
		fmt.Printf("Username:    %s\n", response.Username)
		fmt.Printf("Friend code: %s (share this so friends can find you)\n", response.FriendCode)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your DareDuel account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var request dto.LoginRequest
		request.Username, _ = cmd.Flags().GetString("username")
		request.Password, _ = cmd.Flags().GetString("password")

		httpClient := client.NewHTTPClient(apiURL)
		response, err := httpClient.Login(&request)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		creds := &authentication.StoredCredentials{
			AccessToken:  response.AccessToken,
			RefreshToken: response.RefreshToken,
			Username:     response.Username,
			UserID:       response.UserID,
			ExpiresAt:    expiresAt(response.ExpiresIn),
		}
		if err := authentication.StoreTokens(creds); err != nil {
			return fmt.Errorf("failed to store credentials: %w", err)
		}

		fmt.Printf("✓ Logged in as %s\n", response.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your DareDuel account",
	RunE: func(cmd *cobra.Command, args []string) error {
		// best effort: revoke the refresh token server-side, then always
		// clear the local keyring entry
		if creds, err := authentication.GetTokens(); err == nil {
			httpClient := client.NewHTTPClient(apiURL)
			if err := httpClient.RevokeToken(creds.RefreshToken); err != nil {
				fmt.Println("warning: could not revoke token on server:", err)
			}
		}

		if err := authentication.DeleteTokens(); err != nil {
			return fmt.Errorf("failed to clear stored credentials: %w", err)
		}
		fmt.Println("✓ Successfully logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		user, err := httpClient.GetProfile()
		if err != nil {
			return err
		}

		fmt.Printf("Username:     %s\n", user.Username)
		if user.DisplayName != "" {
			fmt.Printf("Display name: %s\n", user.DisplayName)
		}
		fmt.Printf("Friend code:  %s\n", user.FriendCode)
		fmt.Printf("Member since: %s\n", user.CreatedAt.Format("2006-01-02"))
		return nil
	},
}

var setNameCmd = &cobra.Command{
	Use:   "set-name <display-name>",
	Short: "Change your display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		user, err := httpClient.UpdateProfile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Display name set to %s\n", user.DisplayName)
		return nil
	},
}

func init() {
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
	authCmd.AddCommand(setNameCmd)
	rootCmd.AddCommand(authCmd)

	registerCmd.Flags().StringP("username", "u", "", "Username for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password for the new account")
	registerCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("password")
	registerCmd.MarkFlagRequired("email")

	loginCmd.Flags().StringP("username", "u", "", "Username for the account")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
}
