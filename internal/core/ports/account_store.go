package ports

import (
	"context"

	"github.com/credgate/auth-gateway/internal/core/domain"
)

// AccountStore is the durable credential store, keyed by username.
type AccountStore interface {
	// Insert persists a new account. It is a compare-and-insert: when the
	// username is already taken it returns domain.ErrDuplicateAccount and the
	// existing record is left untouched.
	Insert(ctx context.Context, account *domain.Account) error
	// FindByUsername returns domain.ErrAccountNotFound on a miss.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
}
