package command

// friends.go handles the friend graph commands for the dareduel CLI.

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dareduel/internal/microservices/http-api/dto"
	"dareduel/internal/microservices/http-api/models"
)

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "Manage your friends",
	Long:  `List friends, search for players, send and answer friend requests, and block users.`,
}

var friendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your friends with their online status",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		page, err := httpClient.ListFriends(limit, offset)
		if err != nil {
			return err
		}

		if len(page.Friends) == 0 {
			fmt.Println("No friends yet. Try 'dareduel friends search' or share your friend code.")
			return nil
		}

		fmt.Printf("%d friends, %d online\n\n", page.Total, page.OnlineCount)
		for _, f := range page.Friends {
			name := f.User.Username
			if f.User.DisplayName != "" {
				name = fmt.Sprintf("%s (%s)", f.User.DisplayName, f.User.Username)
			}
			if f.Online {
				color.Green("● %s  [%s]", name, f.User.ID)
			} else {
				fmt.Printf("○ %s  [%s]\n", name, f.User.ID)
			}
		}
		return nil
	},
}

var friendsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for players by username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		result, err := httpClient.SearchUsers(args[0])
		if err != nil {
			return err
		}

		if len(result.Users) == 0 {
			fmt.Println("No players found.")
			return nil
		}
		for _, u := range result.Users {
			printSummary(u)
		}
		return nil
	},
}

var friendsSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest players you might know (friends of friends)",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		suggestions, err := httpClient.FriendSuggestions()
		if err != nil {
			return err
		}

		if len(suggestions) == 0 {
			fmt.Println("No suggestions right now.")
			return nil
		}
		for _, u := range suggestions {
			printSummary(u)
		}
		return nil
	},
}

var friendsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Send a friend request by user id or friend code",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		var request dto.SendFriendRequestRequest
		request.UserID, _ = cmd.Flags().GetString("user")
		request.FriendCode, _ = cmd.Flags().GetString("code")
		request.Message, _ = cmd.Flags().GetString("message")
		if request.UserID == "" && request.FriendCode == "" {
			return fmt.Errorf("either --user or --code is required")
		}

		sent, err := httpClient.SendFriendRequest(&request)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Friend request sent (id %s)\n", sent.ID)
		return nil
	},
}

var friendsRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List pending friend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		direction, _ := cmd.Flags().GetString("direction")
		result, err := httpClient.ListFriendRequests(direction)
		if err != nil {
			return err
		}

		if len(result.Requests) == 0 {
			fmt.Println("No pending requests.")
			return nil
		}
		for _, r := range result.Requests {
			from := r.FromUserID
			if r.FromUser != nil {
				from = r.FromUser.Username
			}
			fmt.Printf("%s  from %s", r.ID, from)
			if r.Message != "" {
				fmt.Printf("  %q", r.Message)
			}
			fmt.Printf("  (%s)\n", r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var friendsAcceptCmd = &cobra.Command{
	Use:   "accept <request-id>",
	Short: "Accept a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondFriendRequest(args[0], true)
	},
}

var friendsRejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return respondFriendRequest(args[0], false)
	},
}

var friendsRemoveCmd = &cobra.Command{
	Use:   "remove <user-id>",
	Short: "Remove a friend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}
		if err := httpClient.RemoveFriend(args[0]); err != nil {
			return err
		}
		fmt.Println("✓ Friend removed.")
		return nil
	},
}

var friendsBlockCmd = &cobra.Command{
	Use:   "block <user-id>",
	Short: "Block a user (also removes any friendship)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		if err := httpClient.BlockUser(args[0], reason); err != nil {
			return err
		}
		fmt.Println("✓ User blocked.")
		return nil
	},
}

var friendsUnblockCmd = &cobra.Command{
	Use:   "unblock <user-id>",
	Short: "Unblock a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}
		if err := httpClient.UnblockUser(args[0]); err != nil {
			return err
		}
		fmt.Println("✓ User unblocked.")
		return nil
	},
}

var friendsCodeCmd = &cobra.Command{
	Use:   "code [friend-code]",
	Short: "Look up a player by friend code, or regenerate your own with --new",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		regenerate, _ := cmd.Flags().GetBool("new")
		if regenerate {
			code, err := httpClient.RegenerateFriendCode()
			if err != nil {
				return err
			}
			fmt.Printf("✓ New friend code: %s\n", code)
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("provide a friend code to look up, or --new to regenerate yours")
		}
		user, err := httpClient.LookupFriendCode(args[0])
		if err != nil {
			return err
		}
		printSummary(*user)
		return nil
	},
}

func respondFriendRequest(requestID string, accept bool) error {
	httpClient, _, err := authedClient()
	if err != nil {
		return err
	}

	request, err := httpClient.RespondFriendRequest(requestID, accept)
	if err != nil {
		return err
	}
	if accept {
		fmt.Printf("✓ You are now friends with %s\n", requestUsername(request.FromUser, request.FromUserID))
	} else {
		fmt.Println("✓ Request rejected.")
	}
	return nil
}

func requestUsername(u *models.User, fallback string) string {
	if u != nil {
		return u.Username
	}
	return fallback
}

func printSummary(u dto.UserSummary) {
	name := u.Username
	if u.DisplayName != "" {
		name = fmt.Sprintf("%s (%s)", u.DisplayName, u.Username)
	}
	fmt.Printf("%s  [%s]\n", name, u.ID)
}

func init() {
	friendsCmd.AddCommand(friendsListCmd)
	friendsCmd.AddCommand(friendsSearchCmd)
	friendsCmd.AddCommand(friendsSuggestCmd)
	friendsCmd.AddCommand(friendsAddCmd)
	friendsCmd.AddCommand(friendsRequestsCmd)
	friendsCmd.AddCommand(friendsAcceptCmd)
	friendsCmd.AddCommand(friendsRejectCmd)
	friendsCmd.AddCommand(friendsRemoveCmd)
	friendsCmd.AddCommand(friendsBlockCmd)
	friendsCmd.AddCommand(friendsUnblockCmd)
	friendsCmd.AddCommand(friendsCodeCmd)
	rootCmd.AddCommand(friendsCmd)

	friendsListCmd.Flags().Int("limit", 20, "Max friends to list")
	friendsListCmd.Flags().Int("offset", 0, "Pagination offset")

	friendsAddCmd.Flags().StringP("user", "u", "", "Target user id")
	friendsAddCmd.Flags().StringP("code", "c", "", "Target 16-digit friend code")
	friendsAddCmd.Flags().StringP("message", "m", "", "Optional message (max 200 chars)")

	friendsRequestsCmd.Flags().StringP("direction", "d", "received", "received or sent")

	friendsBlockCmd.Flags().StringP("reason", "r", "", "Optional reason (max 200 chars)")

	friendsCodeCmd.Flags().Bool("new", false, "Regenerate your own friend code")
}
