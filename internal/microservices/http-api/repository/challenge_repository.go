package repository

import (
	"context"
	"time"

	"dareduel/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	FindByID(ctx context.Context, id string) (*models.Challenge, error)
	Update(ctx context.Context, challenge *models.Challenge) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.Challenge, int64, error)
	CountByUserAndStatus(ctx context.Context, userID string) (map[string]int64, error)
	FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Challenge, error)
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).
		Preload("FromUser").Preload("ToUser").
		First(&challenge, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Save(challenge).Error
}

func (r *challengeRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Challenge{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUser returns challenges the user participates in, optionally
// filtered by status, newest first.
func (r *challengeRepository) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]models.Challenge, int64, error) {
	var challenges []models.Challenge
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("FromUser").Preload("ToUser").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&challenges).Error; err != nil {
		return nil, 0, err
	}
	return challenges, total, nil
}

func (r *challengeRepository) CountByUserAndStatus(ctx context.Context, userID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Select("status, count(*) as count").
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// FindStalePending returns pending challenges created before olderThan,
// used by the expiry sweeper.
func (r *challengeRepository) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.ChallengePending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&challenges).Error
	return challenges, err
}
