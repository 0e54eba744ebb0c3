package repository

import (
	"context"
	"time"

	"dareduel/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// FriendRepository covers friend requests, friendships and blocks.
type FriendRepository interface {
	CreateRequest(ctx context.Context, request *models.FriendRequest) error
	FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error)
	FindPendingBetween(ctx context.Context, userA, userB string) (*models.FriendRequest, error)
	ListRequests(ctx context.Context, userID, direction string, limit, offset int) ([]models.FriendRequest, int64, error)
	UpdateRequest(ctx context.Context, request *models.FriendRequest) error

	CreateFriendship(ctx context.Context, userA, userB, requestID string) error
	DeleteFriendship(ctx context.Context, userA, userB string) error
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	FriendIDs(ctx context.Context, userID string) ([]string, error)
	ListFriends(ctx context.Context, userID string, limit, offset int) ([]models.Friendship, int64, error)

	Block(ctx context.Context, block *models.BlockedUser) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
	IsBlockedEitherWay(ctx context.Context, userA, userB string) (bool, error)
	BlockedIDs(ctx context.Context, userID string) ([]string, error)
}

// Request directions for ListRequests.
const (
	RequestsReceived = "received"
	RequestsSent     = "sent"
)

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *friendRepository) FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).
		Preload("FromUser").Preload("ToUser").
		First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// FindPendingBetween finds a pending request in either direction between two users.
func (r *friendRepository) FindPendingBetween(ctx context.Context, userA, userB string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", models.FriendRequestPending).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *friendRepository) ListRequests(ctx context.Context, userID, direction string, limit, offset int) ([]models.FriendRequest, int64, error) {
	var requests []models.FriendRequest
	var total int64

	q := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("status = ?", models.FriendRequestPending)
	if direction == RequestsSent {
		q = q.Where("from_user_id = ?", userID).Preload("ToUser")
	} else {
		q = q.Where("to_user_id = ?", userID).Preload("FromUser")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *friendRepository) UpdateRequest(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// CreateFriendship inserts both directions in one transaction.
func (r *friendRepository) CreateFriendship(ctx context.Context, userA, userB, requestID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := []models.Friendship{
			{UserID: userA, FriendID: userB, RequestID: requestID, CreatedAt: now},
			{UserID: userB, FriendID: userA, RequestID: requestID, CreatedAt: now},
		}
		return tx.Create(&rows).Error
	})
}

func (r *friendRepository) DeleteFriendship(ctx context.Context, userA, userB string) error {
	return r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userA, userB, userB, userA).
		Delete(&models.Friendship{}).Error
}

func (r *friendRepository) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userA, userB).
		Count(&count).Error
	return count > 0, err
}

func (r *friendRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}

func (r *friendRepository) ListFriends(ctx context.Context, userID string, limit, offset int) ([]models.Friendship, int64, error) {
	var friendships []models.Friendship
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Friendship{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("Friend").Order("created_at DESC").
		Limit(limit).Offset(offset).Find(&friendships).Error; err != nil {
		return nil, 0, err
	}
	return friendships, total, nil
}

func (r *friendRepository) Block(ctx context.Context, block *models.BlockedUser) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *friendRepository) Unblock(ctx context.Context, blockerID, blockedID string) error {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockedUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *friendRepository) IsBlockedEitherWay(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error
	return count > 0, err
}

func (r *friendRepository) BlockedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}
