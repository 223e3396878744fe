// Package memory holds process-local implementations of the store ports, for
// tests and single-instance development runs.
package memory

import (
	"context"
	"sync"

	"github.com/credgate/auth-gateway/internal/core/domain"
)

// AccountStore is a map-backed ports.AccountStore. The mutex serialises
// Insert so concurrent signups for one username see exactly one winner.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]*domain.Account)}
}

func (s *AccountStore) Insert(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.Username]; exists {
		return domain.ErrDuplicateAccount
	}
	s.accounts[account.Username] = cloneAccount(account)
	return nil
}

func (s *AccountStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// Len returns the number of stored accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func cloneAccount(a *domain.Account) *domain.Account {
	clone := *a
	return &clone
}
