package repository

import (
	"context"
	"errors"

	"dareduel/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type StatsRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.GameStats, error)
	Save(ctx context.Context, stats *models.GameStats) error
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// GetByUser returns the aggregate row, or a zeroed one when the user has
// never played.
func (r *statsRepository) GetByUser(ctx context.Context, userID string) (*models.GameStats, error) {
	var stats models.GameStats
	err := r.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.GameStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *statsRepository) Save(ctx context.Context, stats *models.GameStats) error {
	return r.db.WithContext(ctx).Save(stats).Error
}
