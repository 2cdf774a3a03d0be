package models

import "time"

// SessionInfo summarizes an open wizard session.
type SessionInfo struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// IsIdle reports whether the session saw no activity within timeout.
func (s *SessionInfo) IsIdle(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActivity) > timeout
}
