package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderboardEntry is one ranked row of the global leaderboard.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	Username      string  `json:"username"`
	MatchesPlayed int     `json:"matches_played"`
	MatchesWon    int     `json:"matches_won"`
	WinRate       float64 `json:"win_rate"`
	BestStreak    int     `json:"best_streak"`
}

// GlobalTotals aggregates activity across all players.
type GlobalTotals struct {
	TotalChallenges     int64 `json:"total_challenges"`
	CompletedChallenges int64 `json:"completed_challenges"`
	PendingChallenges   int64 `json:"pending_challenges"`
	ActiveChallenges    int64 `json:"active_challenges"`
	TotalMatches        int64 `json:"total_matches"`
	TotalPlayers        int64 `json:"total_players"`
}

// NumberFrequency counts how often a number was picked in completed games.
type NumberFrequency struct {
	Number int   `json:"number"`
	Picks  int64 `json:"picks"`
}

// LeaderboardRepository runs the aggregation queries over a raw pgx pool.
// These are hand-written SQL on purpose: they join and rank across tables
// the GORM repositories own individually.
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

// Top returns the leaderboard ordered by wins, win rate breaking ties.
func (r *LeaderboardRepository) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	query := `
		SELECT s.user_id, u.username, s.matches_played, s.matches_won, s.win_rate, s.best_streak
		FROM game_stats s
		JOIN users u ON u.id = s.user_id
		WHERE s.matches_played > 0
		ORDER BY s.matches_won DESC, s.win_rate DESC, u.username ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		entry := LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.MatchesPlayed,
			&entry.MatchesWon, &entry.WinRate, &entry.BestStreak); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Totals aggregates challenge and player counts in one round trip.
func (r *LeaderboardRepository) Totals(ctx context.Context) (*GlobalTotals, error) {
	query := `
		SELECT
			(SELECT count(*) FROM challenges),
			(SELECT count(*) FROM challenges WHERE status = 'completed'),
			(SELECT count(*) FROM challenges WHERE status = 'pending'),
			(SELECT count(*) FROM challenges WHERE status = 'active'),
			(SELECT count(*) FROM challenges WHERE result = 'match'),
			(SELECT count(*) FROM users)
	`

	totals := &GlobalTotals{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&totals.TotalChallenges,
		&totals.CompletedChallenges,
		&totals.PendingChallenges,
		&totals.ActiveChallenges,
		&totals.TotalMatches,
		&totals.TotalPlayers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query global totals: %w", err)
	}
	return totals, nil
}

// TopNumbers returns the most picked numbers across completed challenges.
func (r *LeaderboardRepository) TopNumbers(ctx context.Context, limit int) ([]NumberFrequency, error) {
	// Both sides' picks count toward the frequency of a number.
	query := `
		SELECT number, count(*) AS picks FROM (
			SELECT from_number AS number FROM challenges WHERE status = 'completed' AND from_number IS NOT NULL
			UNION ALL
			SELECT to_number AS number FROM challenges WHERE status = 'completed' AND to_number IS NOT NULL
		) picks
		GROUP BY number
		ORDER BY picks DESC, number ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query number stats: %w", err)
	}
	defer rows.Close()

	var freqs []NumberFrequency
	for rows.Next() {
		var f NumberFrequency
		if err := rows.Scan(&f.Number, &f.Picks); err != nil {
			return nil, fmt.Errorf("failed to scan number stats row: %w", err)
		}
		freqs = append(freqs, f)
	}
	return freqs, rows.Err()
}

// CompletedSince counts challenges resolved in the trailing window, used by
// the activity endpoint.
func (r *LeaderboardRepository) CompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM challenges WHERE status = 'completed' AND completed_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent completions: %w", err)
	}
	return count, nil
}
