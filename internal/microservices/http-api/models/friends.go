package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friend request lifecycle states.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

type FriendRequest struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	FromUserID  string     `gorm:"type:uuid;not null;index" json:"from_user_id"`
	ToUserID    string     `gorm:"type:uuid;not null;index" json:"to_user_id"`
	Message     string     `gorm:"size:200" json:"message,omitempty"`
	Status      string     `gorm:"default:'pending';not null;index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	// Associations
	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Friendship is stored twice per pair (one row per direction) so friend
// lists are a single indexed query on user_id.
type Friendship struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_friend_pair" json:"user_id"`
	FriendID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_friend_pair" json:"friend_id"`
	RequestID string    `gorm:"type:uuid" json:"request_id,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Associations
	Friend *User `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
}

func (Friendship) TableName() string {
	return "friendships"
}

type BlockedUser struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlockerID string    `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair" json:"blocker_id"`
	BlockedID string    `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair" json:"blocked_id"`
	Reason    string    `gorm:"size:200" json:"reason,omitempty"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (BlockedUser) TableName() string {
	return "blocked_users"
}
