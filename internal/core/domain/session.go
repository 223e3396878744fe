package domain

import "time"

const TokenTypeBearer = "bearer"

// SessionGrant is the capability handed to a caller after a successful login.
type SessionGrant struct {
	ID        string    `json:"-"`
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is the validated view of a presented grant.
type Session struct {
	ID        string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// TTL returns how long the session remains valid relative to now.
func (s *Session) TTL(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
