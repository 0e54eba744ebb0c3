package command

// challenge.go handles the dare lifecycle commands for the dareduel CLI.

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dareduel/internal/microservices/http-api/models"
)

var dareCmd = &cobra.Command{
	Use:   "dare",
	Short: "Send and play dares",
	Long: `Send dares to friends and play them out. A dare starts pending; the
recipient accepts it with a number range (e.g. 1-10) or rejects it. Once
accepted, both players secretly pick a number in the range. Matching
numbers mean the darer wins and the dare must be done; different numbers
let the recipient off the hook.`,
}

var dareSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Dare a friend",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		toUserID, _ := cmd.Flags().GetString("to")
		description, _ := cmd.Flags().GetString("description")
		challenge, err := httpClient.CreateChallenge(toUserID, description)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Dare sent (id %s). Waiting for your friend to respond.\n", challenge.ID)
		return nil
	},
}

var dareListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your dares",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, creds, err := authedClient()
		if err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		result, err := httpClient.ListChallenges(status, limit, offset)
		if err != nil {
			return err
		}

		if len(result.Challenges) == 0 {
			fmt.Println("No dares. Send one with 'dareduel dare send'.")
			return nil
		}

		fmt.Printf("%d dares\n\n", result.Total)
		for _, ch := range result.Challenges {
			printChallengeLine(&ch, creds.UserID)
		}
		return nil
	},
}

var dareShowCmd = &cobra.Command{
	Use:   "show <dare-id>",
	Short: "Show one dare in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, creds, err := authedClient()
		if err != nil {
			return err
		}

		challenge, err := httpClient.GetChallenge(args[0])
		if err != nil {
			return err
		}

		printChallengeDetail(challenge, creds.UserID)
		return nil
	},
}

var dareCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show how many dares you have per status",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		counts, err := httpClient.ChallengeCounts()
		if err != nil {
			return err
		}

		for _, status := range []string{"pending", "accepted", "active", "completed", "rejected", "expired"} {
			if n, ok := counts[status]; ok && n > 0 {
				fmt.Printf("%-10s %d\n", status, n)
			}
		}
		return nil
	},
}

var dareAcceptCmd = &cobra.Command{
	Use:   "accept <dare-id>",
	Short: "Accept a dare and set the number range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		rangeMin, _ := cmd.Flags().GetInt("min")
		rangeMax, _ := cmd.Flags().GetInt("max")
		challenge, err := httpClient.RespondChallenge(args[0], true, rangeMin, rangeMax)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Dare accepted with range %d-%d. Pick your number with 'dareduel dare pick %s <n>'.\n",
			*challenge.RangeMin, *challenge.RangeMax, challenge.ID)
		return nil
	},
}

var dareRejectCmd = &cobra.Command{
	Use:   "reject <dare-id>",
	Short: "Reject a dare",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}
		if _, err := httpClient.RespondChallenge(args[0], false, 0, 0); err != nil {
			return err
		}
		fmt.Println("✓ Dare rejected.")
		return nil
	},
}

var darePickCmd = &cobra.Command{
	Use:   "pick <dare-id> <number>",
	Short: "Pick your secret number for an accepted dare",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, creds, err := authedClient()
		if err != nil {
			return err
		}

		number, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid number: %s", args[1])
		}

		challenge, err := httpClient.SubmitNumber(args[0], number)
		if err != nil {
			return err
		}

		switch challenge.Status {
		case models.ChallengeCompleted:
			printOutcome(challenge, creds.UserID)
		default:
			fmt.Println("✓ Number locked in. Waiting for the other player.")
		}
		return nil
	},
}

var dareCancelCmd = &cobra.Command{
	Use:   "cancel <dare-id>",
	Short: "Cancel a dare you sent that is still pending",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}
		if err := httpClient.CancelChallenge(args[0]); err != nil {
			return err
		}
		fmt.Println("✓ Dare cancelled.")
		return nil
	},
}

func printChallengeLine(ch *models.Challenge, selfID string) {
	role := "→" // sent by us
	otherID, otherUser := ch.ToUserID, ch.ToUser
	if ch.ToUserID == selfID {
		role = "←"
		otherID, otherUser = ch.FromUserID, ch.FromUser
	}
	other := otherID
	if otherUser != nil {
		other = otherUser.Username
	}
	fmt.Printf("%s  %s %s  [%s]  %q\n", ch.ID, role, other, ch.Status, ch.Description)
}

func printChallengeDetail(ch *models.Challenge, selfID string) {
	fmt.Printf("Dare:    %s\n", ch.Description)
	fmt.Printf("Status:  %s\n", ch.Status)
	if ch.RangeMin != nil && ch.RangeMax != nil {
		fmt.Printf("Range:   %d-%d\n", *ch.RangeMin, *ch.RangeMax)
	}
	fmt.Printf("Created: %s\n", ch.CreatedAt.Format("2006-01-02 15:04"))
	if ch.Status == models.ChallengeCompleted {
		printOutcome(ch, selfID)
	}
}

func printOutcome(ch *models.Challenge, selfID string) {
	if ch.Result == nil {
		return
	}
	if ch.BothNumbersIn() {
		yours, theirs := ch.FromNumber, ch.ToNumber
		if ch.ToUserID == selfID {
			yours, theirs = theirs, yours
		}
		fmt.Printf("Numbers: you picked %d, they picked %d\n", *yours, *theirs)
	}
	switch *ch.Result {
	case models.ResultMatch:
		// numbers matched, the darer wins
		if ch.FromUserID == selfID {
			color.Green("🎯 Numbers matched, you win! The dare must be done.")
		} else {
			color.Red("🎯 Numbers matched, you lost. Time to do the dare!")
		}
	case models.ResultNoMatch:
		if ch.ToUserID == selfID {
			color.Green("✓ No match, you win! You're off the hook.")
		} else {
			color.Red("✗ No match, your target escapes the dare this time.")
		}
	}
}

func init() {
	dareCmd.AddCommand(dareSendCmd)
	dareCmd.AddCommand(dareListCmd)
	dareCmd.AddCommand(dareShowCmd)
	dareCmd.AddCommand(dareCountsCmd)
	dareCmd.AddCommand(dareAcceptCmd)
	dareCmd.AddCommand(dareRejectCmd)
	dareCmd.AddCommand(darePickCmd)
	dareCmd.AddCommand(dareCancelCmd)
	rootCmd.AddCommand(dareCmd)

	dareSendCmd.Flags().StringP("to", "t", "", "Friend's user id")
	dareSendCmd.Flags().StringP("description", "d", "", "What the dare is")
	dareSendCmd.MarkFlagRequired("to")
	dareSendCmd.MarkFlagRequired("description")

	dareListCmd.Flags().StringP("status", "s", "", "Filter by status (pending, accepted, active, completed, ...)")
	dareListCmd.Flags().Int("limit", 20, "Max dares to list")
	dareListCmd.Flags().Int("offset", 0, "Pagination offset")

	dareAcceptCmd.Flags().Int("min", 1, "Lower bound of the number range")
	dareAcceptCmd.Flags().Int("max", 10, "Upper bound of the number range")
}
