package service

import (
	"context"
	"testing"
	"time"

	"dareduel/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func completedChallenge(result string) *models.Challenge {
	now := time.Now()
	return &models.Challenge{
		ID:          "ch-1",
		FromUserID:  "alice",
		ToUserID:    "bob",
		Status:      models.ChallengeCompleted,
		Result:      &result,
		CompletedAt: &now,
	}
}

func TestRecordResult_MatchCreatorWins(t *testing.T) {
	statsRepo := new(MockStatsRepository)
	svc := NewStatsService(statsRepo, nil)
	ctx := context.Background()

	var saved []*models.GameStats
	statsRepo.On("GetByUser", ctx, "alice").Return(&models.GameStats{UserID: "alice"}, nil)
	statsRepo.On("GetByUser", ctx, "bob").Return(&models.GameStats{UserID: "bob"}, nil)
	statsRepo.On("Save", ctx, mock.AnythingOfType("*models.GameStats")).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(1).(*models.GameStats))
		}).Return(nil)

	err := svc.RecordResult(ctx, completedChallenge(models.ResultMatch))

	assert.NoError(t, err)
	assert.Len(t, saved, 2)

	byUser := map[string]*models.GameStats{}
	for _, s := range saved {
		byUser[s.UserID] = s
	}
	assert.Equal(t, 1, byUser["alice"].MatchesWon)
	assert.Equal(t, 0, byUser["alice"].MatchesLost)
	assert.Equal(t, 1, byUser["alice"].CurrentStreak)
	assert.Equal(t, 1.0, byUser["alice"].WinRate)
	assert.Equal(t, 1, byUser["bob"].MatchesLost)
	assert.Equal(t, -1, byUser["bob"].CurrentStreak)
	assert.Equal(t, 0.0, byUser["bob"].WinRate)
}

func TestRecordResult_NoMatchRecipientWins(t *testing.T) {
	statsRepo := new(MockStatsRepository)
	svc := NewStatsService(statsRepo, nil)
	ctx := context.Background()

	var saved []*models.GameStats
	statsRepo.On("GetByUser", ctx, mock.AnythingOfType("string")).Return(&models.GameStats{}, nil).Twice()
	statsRepo.On("Save", ctx, mock.AnythingOfType("*models.GameStats")).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(1).(*models.GameStats))
		}).Return(nil)

	err := svc.RecordResult(ctx, completedChallenge(models.ResultNoMatch))

	assert.NoError(t, err)
	assert.Len(t, saved, 2)
	// winner is saved first
	assert.Equal(t, 1, saved[0].MatchesWon)
	assert.Equal(t, 1, saved[1].MatchesLost)
}

func TestRecordResult_StreakTracking(t *testing.T) {
	statsRepo := new(MockStatsRepository)
	svc := NewStatsService(statsRepo, nil)
	ctx := context.Background()

	winner := &models.GameStats{UserID: "alice", MatchesPlayed: 4, MatchesWon: 2, MatchesLost: 2, CurrentStreak: 2, BestStreak: 2}
	loser := &models.GameStats{UserID: "bob", MatchesPlayed: 4, MatchesWon: 2, MatchesLost: 2, CurrentStreak: 1, BestStreak: 3}

	statsRepo.On("GetByUser", ctx, "alice").Return(winner, nil)
	statsRepo.On("GetByUser", ctx, "bob").Return(loser, nil)
	statsRepo.On("Save", ctx, mock.AnythingOfType("*models.GameStats")).Return(nil)

	err := svc.RecordResult(ctx, completedChallenge(models.ResultMatch))

	assert.NoError(t, err)
	assert.Equal(t, 3, winner.CurrentStreak)
	assert.Equal(t, 3, winner.BestStreak)
	assert.Equal(t, -1, loser.CurrentStreak)
	assert.Equal(t, 3, loser.BestStreak)
	assert.Equal(t, 0.6, winner.WinRate)
}

func TestRecordResult_Unresolved(t *testing.T) {
	svc := NewStatsService(new(MockStatsRepository), nil)

	err := svc.RecordResult(context.Background(), &models.Challenge{ID: "ch-1"})

	assert.Equal(t, ErrChallengeNotResolved, err)
}
