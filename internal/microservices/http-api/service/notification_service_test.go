package service

import (
	"context"
	"testing"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/pkg/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPush_StoresAndPublishes(t *testing.T) {
	repo := new(MockNotificationRepository)
	publisher := newRecordPublisher()
	svc := NewNotificationService(repo, publisher, discardLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)

	err := svc.Push(ctx, &models.Notification{
		UserID:  "bob",
		Type:    models.NotificationGeneral,
		Title:   "hello",
		Message: "welcome",
	})

	assert.NoError(t, err)
	sent := publisher.sent("bob")
	assert.Len(t, sent, 1)
	assert.Equal(t, realtime.TypeEntityCreated, sent[0].Type)

	var event realtime.EntityEvent
	assert.NoError(t, sent[0].DecodeData(&event))
	assert.Equal(t, realtime.EntityNotification, event.Entity)
	repo.AssertExpectations(t)
}

func TestPush_StoreFailureSkipsPublish(t *testing.T) {
	repo := new(MockNotificationRepository)
	publisher := newRecordPublisher()
	svc := NewNotificationService(repo, publisher, discardLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(assert.AnError)

	err := svc.Push(ctx, &models.Notification{UserID: "bob", Type: models.NotificationGeneral})

	assert.Error(t, err)
	assert.Empty(t, publisher.sent("bob"))
}

func TestMarkAsRead_OwnershipEnforced(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo, newRecordPublisher(), discardLogger())
	ctx := context.Background()

	unread := []models.Notification{{ID: 7, UserID: "bob"}}
	repo.On("GetUnreadByUser", ctx, "bob").Return(unread, nil)
	repo.On("MarkAsRead", ctx, int64(7)).Return(nil)

	assert.NoError(t, svc.MarkAsRead(ctx, "bob", 7))
	assert.Equal(t, ErrNotificationNotFound, svc.MarkAsRead(ctx, "bob", 99))
	repo.AssertExpectations(t)
}

func TestList_ClampsLimit(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewNotificationService(repo, newRecordPublisher(), discardLogger())
	ctx := context.Background()

	repo.On("ListByUser", ctx, "bob", 20, 0).Return([]models.Notification{}, int64(0), nil)

	_, _, err := svc.List(ctx, "bob", 500, 0)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
