package ports

import (
	"context"

	"github.com/credgate/auth-gateway/internal/core/domain"
)

// RegisterInput carries a signup request into the Registrar.
type RegisterInput struct {
	Username string
	Password string
	Role     string // optional, defaults to domain.RoleUser
}

// Registrar creates new accounts.
type Registrar interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
}

// Authenticator verifies credentials and manages the grants it hands out.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.SessionGrant, error)
	Session(ctx context.Context, token string) (*domain.Session, error)
	Logout(ctx context.Context, token string) error
}
