// internal/models/session.go
package models

import "time"

// Session is the authenticated user's session as this subsystem sees it: a
// bearer token with an expiry. Issuing and revoking sessions belongs to the
// platform's auth service, not here.
type Session struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired reports whether the token can no longer be presented.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}
