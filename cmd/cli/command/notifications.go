package command

// notifications.go handles the notification inbox commands for the dareduel CLI.

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dareduel/internal/microservices/http-api/models"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "Read your notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		result, err := httpClient.ListNotifications(limit, offset)
		if err != nil {
			return err
		}

		if len(result.Notifications) == 0 {
			fmt.Println("No notifications.")
			return nil
		}
		for _, n := range result.Notifications {
			printNotification(n)
		}
		return nil
	},
}

var notificationsUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "List unread notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		notifications, err := httpClient.UnreadNotifications()
		if err != nil {
			return err
		}

		if len(notifications) == 0 {
			fmt.Println("All caught up!")
			return nil
		}
		for _, n := range notifications {
			printNotification(n)
		}
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark a notification (or all with --all) as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		if all {
			if err := httpClient.MarkAllNotificationsRead(); err != nil {
				return err
			}
			fmt.Println("✓ All notifications marked read.")
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("provide a notification id, or --all")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid notification id: %s", args[0])
		}
		if err := httpClient.MarkNotificationRead(id); err != nil {
			return err
		}
		fmt.Println("✓ Marked read.")
		return nil
	},
}

func printNotification(n models.Notification) {
	stamp := n.CreatedAt.Format("01-02 15:04")
	if n.Read {
		fmt.Printf("  %d  %s  %s: %s\n", n.ID, stamp, n.Title, n.Message)
	} else {
		color.Cyan("● %d  %s  %s: %s", n.ID, stamp, n.Title, n.Message)
	}
}

func init() {
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsUnreadCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	rootCmd.AddCommand(notificationsCmd)

	notificationsListCmd.Flags().Int("limit", 20, "Max notifications to list")
	notificationsListCmd.Flags().Int("offset", 0, "Pagination offset")

	notificationsReadCmd.Flags().Bool("all", false, "Mark every notification as read")
}
