package models

import "time"

// Session is a persisted login. The token carries its ID so the middleware can
// reject revoked sessions and keep last-seen fresh for active-session counts.
type Session struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	Revoked    bool      `json:"revoked"`
}
