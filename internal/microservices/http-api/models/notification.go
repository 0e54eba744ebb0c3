package models

import "time"

// Notification types surfaced to users.
const (
	NotificationChallengeCreated   = "CHALLENGE_CREATED"
	NotificationChallengeAccepted  = "CHALLENGE_ACCEPTED"
	NotificationChallengeRejected  = "CHALLENGE_REJECTED"
	NotificationChallengeCompleted = "CHALLENGE_COMPLETED"
	NotificationChallengeExpired   = "CHALLENGE_EXPIRED"
	NotificationFriendRequest      = "FRIEND_REQUEST"
	NotificationFriendAccepted     = "FRIEND_ACCEPTED"
	NotificationGeneral            = "GENERAL"
)

type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"`
	EntityID  string    `json:"entity_id,omitempty"` // challenge or friend request id
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
