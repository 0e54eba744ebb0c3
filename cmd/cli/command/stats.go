package command

// stats.go handles the statistics commands for the dareduel CLI.

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Game statistics and leaderboard",
}

var statsMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show your own win/loss record",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		stats, err := httpClient.MyStats()
		if err != nil {
			return err
		}

		fmt.Printf("Matches played: %d\n", stats.MatchesPlayed)
		fmt.Printf("Matches won:    %d\n", stats.MatchesWon)
		fmt.Printf("Matches lost:   %d\n", stats.MatchesLost)
		fmt.Printf("Win rate:       %.1f%%\n", stats.WinRate*100)
		switch {
		case stats.CurrentStreak > 0:
			color.Green("Current streak: %d wins", stats.CurrentStreak)
		case stats.CurrentStreak < 0:
			color.Red("Current streak: %d losses", -stats.CurrentStreak)
		default:
			fmt.Println("Current streak: 0")
		}
		fmt.Printf("Best streak:    %d\n", stats.BestStreak)
		if stats.LastPlayedAt != nil {
			fmt.Printf("Last played:    %s\n", stats.LastPlayedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var statsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, creds, err := authedClient()
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := httpClient.Leaderboard(limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("Nobody has played yet.")
			return nil
		}

		fmt.Printf("%-5s %-20s %8s %6s %8s %6s\n", "Rank", "Player", "Played", "Won", "Win %", "Best")
		for _, e := range entries {
			line := fmt.Sprintf("%-5d %-20s %8d %6d %7.1f%% %6d",
				e.Rank, e.Username, e.MatchesPlayed, e.MatchesWon, e.WinRate*100, e.BestStreak)
			if e.UserID == creds.UserID {
				color.Yellow("%s  ← you", line)
			} else {
				fmt.Println(line)
			}
		}
		return nil
	},
}

var statsTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show global game totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		totals, err := httpClient.GlobalTotals()
		if err != nil {
			return err
		}

		fmt.Printf("Players:              %d\n", totals.TotalPlayers)
		fmt.Printf("Dares sent:           %d\n", totals.TotalChallenges)
		fmt.Printf("Dares completed:      %d\n", totals.CompletedChallenges)
		fmt.Printf("Dares pending:        %d\n", totals.PendingChallenges)
		fmt.Printf("Dares in play:        %d\n", totals.ActiveChallenges)
		fmt.Printf("Matches resolved:     %d\n", totals.TotalMatches)
		return nil
	},
}

var statsNumbersCmd = &cobra.Command{
	Use:   "numbers",
	Short: "Show the most picked numbers in completed dares",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, _, err := authedClient()
		if err != nil {
			return err
		}

		numbers, err := httpClient.PopularNumbers()
		if err != nil {
			return err
		}

		if len(numbers) == 0 {
			fmt.Println("No completed dares yet.")
			return nil
		}
		for _, n := range numbers {
			fmt.Printf("%3d  picked %d times\n", n.Number, n.Picks)
		}
		return nil
	},
}

func init() {
	statsCmd.AddCommand(statsMeCmd)
	statsCmd.AddCommand(statsTopCmd)
	statsCmd.AddCommand(statsTotalsCmd)
	statsCmd.AddCommand(statsNumbersCmd)
	rootCmd.AddCommand(statsCmd)

	statsTopCmd.Flags().Int("limit", 10, "Number of leaderboard entries")
}
