package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Challenge lifecycle states. A challenge starts pending, the recipient
// accepts it with a number range (or rejects it), both players submit a
// number while it is active, and resolution completes it.
const (
	ChallengePending   = "pending"
	ChallengeAccepted  = "accepted"
	ChallengeRejected  = "rejected"
	ChallengeActive    = "active"
	ChallengeCompleted = "completed"
	ChallengeExpired   = "expired"
)

// Challenge outcomes.
const (
	ResultMatch   = "match"    // both players picked the same number, the dare is on
	ResultNoMatch = "no_match" // numbers differ, the recipient is off the hook
)

type Challenge struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	Description string     `gorm:"size:500;not null" json:"description"`
	FromUserID  string     `gorm:"type:uuid;not null;index" json:"from_user_id"`
	ToUserID    string     `gorm:"type:uuid;not null;index" json:"to_user_id"`
	Status      string     `gorm:"default:'pending';not null;index" json:"status"`
	RangeMin    *int       `json:"range_min,omitempty"`
	RangeMax    *int       `json:"range_max,omitempty"`
	FromNumber  *int       `json:"-"` // hidden until the challenge completes
	ToNumber    *int       `json:"-"`
	Result      *string    `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Associations
	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

func (Challenge) TableName() string {
	return "challenges"
}

// challengeAlias breaks the MarshalJSON/UnmarshalJSON recursion.
type challengeAlias Challenge

// MarshalJSON keeps both picks secret while the challenge is in play and
// reveals them once it completes, so neither player can peek at the other's
// number before submitting their own.
func (c Challenge) MarshalJSON() ([]byte, error) {
	out := struct {
		challengeAlias
		FromNumber *int `json:"from_number,omitempty"`
		ToNumber   *int `json:"to_number,omitempty"`
	}{challengeAlias: challengeAlias(c)}
	if c.Status == ChallengeCompleted {
		out.FromNumber = c.FromNumber
		out.ToNumber = c.ToNumber
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the revealed numbers so API consumers decoding a
// completed challenge get them back.
func (c *Challenge) UnmarshalJSON(data []byte) error {
	aux := struct {
		*challengeAlias
		FromNumber *int `json:"from_number"`
		ToNumber   *int `json:"to_number"`
	}{challengeAlias: (*challengeAlias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.FromNumber = aux.FromNumber
	c.ToNumber = aux.ToNumber
	return nil
}

// BothNumbersIn reports whether both players have submitted their pick.
func (c *Challenge) BothNumbersIn() bool {
	return c.FromNumber != nil && c.ToNumber != nil
}

// IsParticipant reports whether userID is one of the two players.
func (c *Challenge) IsParticipant(userID string) bool {
	return c.FromUserID == userID || c.ToUserID == userID
}
