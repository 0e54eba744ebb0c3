package models

import "time"

// GameStats is the per-user aggregate updated after every resolved challenge.
type GameStats struct {
	UserID        string     `gorm:"primaryKey;type:uuid" json:"user_id"`
	MatchesPlayed int        `gorm:"default:0" json:"matches_played"`
	MatchesWon    int        `gorm:"default:0" json:"matches_won"`
	MatchesLost   int        `gorm:"default:0" json:"matches_lost"`
	WinRate       float64    `gorm:"default:0" json:"win_rate"`
	CurrentStreak int        `gorm:"default:0" json:"current_streak"`
	BestStreak    int        `gorm:"default:0" json:"best_streak"`
	LastPlayedAt  *time.Time `json:"last_played_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (GameStats) TableName() string {
	return "game_stats"
}
