package repository

import (
	"context"

	"dareduel/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, int64, error)
	MarkAsRead(ctx context.Context, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) GetUnreadByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND read = false", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, notificationID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("read", true).Error
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Update("read", true).Error
}
