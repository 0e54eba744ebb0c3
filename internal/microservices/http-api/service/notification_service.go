package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/repository"
	"dareduel/pkg/realtime"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService interface {
	GetUnread(ctx context.Context, userID string) ([]models.Notification, error)
	List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, int64, error)
	MarkAsRead(ctx context.Context, userID string, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID string) error
	// Push stores a notification and fans it out over the realtime hub.
	Push(ctx context.Context, n *models.Notification) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
	logger    *slog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, publisher Publisher, logger *slog.Logger) NotificationService {
	return &notificationService{repo: repo, publisher: publisher, logger: logger}
}

func (s *notificationService) GetUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.repo.GetUnreadByUser(ctx, userID)
}

func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// MarkAsRead verifies ownership before flipping the flag so one user cannot
// dismiss another's notifications.
func (s *notificationService) MarkAsRead(ctx context.Context, userID string, notificationID int64) error {
	notifications, err := s.repo.GetUnreadByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		if n.ID == notificationID {
			return s.repo.MarkAsRead(ctx, notificationID)
		}
	}
	return ErrNotificationNotFound
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Push(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	msg, err := realtime.NewEntityEvent(realtime.TypeEntityCreated, realtime.EntityNotification, n.EntityID, n)
	if err != nil {
		s.logger.Warn("could not encode notification event", "user_id", n.UserID, "error", err)
		return nil
	}
	s.publisher.Publish(n.UserID, msg)
	return nil
}
