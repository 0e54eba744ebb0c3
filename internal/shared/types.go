package shared

import "time"

// shared types across the application

// PresenceSnapshot is what the presence layer reports for one user.
type PresenceSnapshot struct {
	UserID   string    `json:"user_id"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}
