package ports

import (
	"context"
	"time"

	"github.com/credgate/auth-gateway/internal/core/domain"
)

// SessionManager issues and validates session grants.
type SessionManager interface {
	Issue(ctx context.Context, account *domain.Account) (*domain.SessionGrant, error)
	// Validate returns domain.ErrInvalidSession for malformed, expired or
	// revoked tokens.
	Validate(ctx context.Context, token string) (*domain.Session, error)
	Revoke(ctx context.Context, session *domain.Session) error
}

// RevocationList remembers revoked session ids until they would have expired anyway.
type RevocationList interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}
