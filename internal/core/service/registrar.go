package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/credgate/auth-gateway/internal/core/domain"
	"github.com/credgate/auth-gateway/internal/core/ports"
	"github.com/credgate/auth-gateway/internal/metrics"
)

// Registrar implements account signup.
type Registrar struct {
	store  ports.AccountStore
	hasher ports.PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewRegistrar(store ports.AccountStore, hasher ports.PasswordHasher, log zerolog.Logger) *Registrar {
	return &Registrar{store: store, hasher: hasher, log: log, now: time.Now}
}

// Register hashes the password and inserts a new account. The store decides
// uniqueness, so two concurrent signups for one username yield exactly one
// account and one domain.ErrDuplicateAccount.
func (r *Registrar) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	account, err := r.register(ctx, in)
	metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return account, err
}

func (r *Registrar) register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	if in.Username == "" {
		return nil, domain.NewValidationError("username", "is required")
	}
	if in.Password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}

	hash, err := r.hasher.Hash(ctx, in.Password)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error().Err(err).Str("username", in.Username).Msg("password hashing failed")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	// The caller may have gone away while bcrypt ran; drop the hash unwritten.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	account := domain.NewAccount(in.Username, hash, in.Role, r.now())
	if account.Role != domain.RoleUser {
		// Role is client-supplied and unchecked; keep a trail of elevated requests.
		r.log.Warn().Str("username", account.Username).Str("role", account.Role).Msg("signup requested non-default role")
	}

	if err := r.store.Insert(ctx, account); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	r.log.Info().
		Str("username", account.Username).
		Str("role", account.Role).
		Msg("account registered")

	return account, nil
}
