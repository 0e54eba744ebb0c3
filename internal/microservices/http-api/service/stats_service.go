package service

import (
	"context"
	"errors"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"
)

var ErrChallengeNotResolved = errors.New("challenge has no result yet")

type StatsService interface {
	// RecordResult updates both players' aggregates from a completed
	// challenge. A match means the creator won the dare.
	RecordResult(ctx context.Context, challenge *models.Challenge) error
	UserStats(ctx context.Context, userID string) (*models.GameStats, error)
	Leaderboard(ctx context.Context, limit int) ([]repository.LeaderboardEntry, error)
	GlobalTotals(ctx context.Context) (*repository.GlobalTotals, error)
	PopularNumbers(ctx context.Context, limit int) ([]repository.NumberFrequency, error)
	CompletedSince(ctx context.Context, since time.Time) (int64, error)
}

type statsService struct {
	statsRepo       repository.StatsRepository
	leaderboardRepo *repository.LeaderboardRepository
}

func NewStatsService(statsRepo repository.StatsRepository, leaderboardRepo *repository.LeaderboardRepository) StatsService {
	return &statsService{statsRepo: statsRepo, leaderboardRepo: leaderboardRepo}
}

func (s *statsService) RecordResult(ctx context.Context, challenge *models.Challenge) error {
	if challenge.Result == nil {
		return ErrChallengeNotResolved
	}

	winnerID := challenge.ToUserID
	if *challenge.Result == models.ResultMatch {
		winnerID = challenge.FromUserID
	}
	loserID := challenge.FromUserID
	if winnerID == challenge.FromUserID {
		loserID = challenge.ToUserID
	}

	playedAt := time.Now()
	if challenge.CompletedAt != nil {
		playedAt = *challenge.CompletedAt
	}

	if err := s.apply(ctx, winnerID, true, playedAt); err != nil {
		return err
	}
	return s.apply(ctx, loserID, false, playedAt)
}

func (s *statsService) apply(ctx context.Context, userID string, won bool, playedAt time.Time) error {
	stats, err := s.statsRepo.GetByUser(ctx, userID)
	if err != nil {
		return err
	}

	stats.MatchesPlayed++
	if won {
		stats.MatchesWon++
		if stats.CurrentStreak < 0 {
			stats.CurrentStreak = 0
		}
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.MatchesLost++
		// Streak goes negative on a losing run.
		if stats.CurrentStreak > 0 {
			stats.CurrentStreak = 0
		}
		stats.CurrentStreak--
	}
	stats.WinRate = float64(stats.MatchesWon) / float64(stats.MatchesPlayed)
	stats.LastPlayedAt = &playedAt

	return s.statsRepo.Save(ctx, stats)
}

func (s *statsService) UserStats(ctx context.Context, userID string) (*models.GameStats, error) {
	return s.statsRepo.GetByUser(ctx, userID)
}

func (s *statsService) Leaderboard(ctx context.Context, limit int) ([]repository.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.leaderboardRepo.Top(ctx, limit)
}

func (s *statsService) GlobalTotals(ctx context.Context) (*repository.GlobalTotals, error) {
	return s.leaderboardRepo.Totals(ctx)
}

func (s *statsService) PopularNumbers(ctx context.Context, limit int) ([]repository.NumberFrequency, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.leaderboardRepo.TopNumbers(ctx, limit)
}

func (s *statsService) CompletedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.leaderboardRepo.CompletedSince(ctx, since)
}
