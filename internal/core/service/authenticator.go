package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/credgate/auth-gateway/internal/core/domain"
	"github.com/credgate/auth-gateway/internal/core/ports"
	"github.com/credgate/auth-gateway/internal/metrics"
)

// dummyPassword is hashed once and verified against when the username is
// unknown, so both rejection paths spend the same bcrypt work.
const dummyPassword = "credgate:unknown-account"

// Authenticator implements login, session lookup and logout.
type Authenticator struct {
	store    ports.AccountStore
	hasher   ports.PasswordHasher
	sessions ports.SessionManager
	log      zerolog.Logger

	dummyMu   sync.Mutex
	dummyHash string
}

func NewAuthenticator(
	store ports.AccountStore,
	hasher ports.PasswordHasher,
	sessions ports.SessionManager,
	log zerolog.Logger,
) *Authenticator {
	return &Authenticator{
		store:    store,
		hasher:   hasher,
		sessions: sessions,
		log:      log,
	}
}

// Authenticate verifies a login attempt and issues a grant if and only if the
// password matches. Unknown usernames and wrong passwords both yield
// domain.ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*domain.SessionGrant, error) {
	grant, err := a.authenticate(ctx, username, password)
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return grant, err
}

func (a *Authenticator) authenticate(ctx context.Context, username, password string) (*domain.SessionGrant, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := a.store.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		a.hasher.Verify(ctx, password, a.dummy(ctx))
		return nil, a.reject(ctx, username)
	case err != nil:
		if ctx.Err() == nil {
			a.log.Error().Err(err).Str("username", username).Msg("account lookup failed")
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !a.hasher.Verify(ctx, password, account.PasswordHash) {
		return nil, a.reject(ctx, username)
	}

	grant, err := a.sessions.Issue(ctx, account)
	if err != nil {
		a.log.Error().Err(err).Str("username", username).Msg("session issuance failed")
		return nil, fmt.Errorf("authenticate: issue session: %w", err)
	}

	a.log.Info().
		Str("username", account.Username).
		Str("session_id", grant.ID).
		Time("expires_at", grant.ExpiresAt).
		Msg("session granted")

	return grant, nil
}

// reject reports a failed verification, unless the failure was really the
// caller abandoning the request.
func (a *Authenticator) reject(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	a.log.Debug().Str("username", username).Msg("login rejected")
	return domain.ErrInvalidCredentials
}

// dummy returns the hash verified for unknown usernames. A failed attempt is
// retried on the next call instead of leaving the hash empty for good.
func (a *Authenticator) dummy(ctx context.Context) string {
	a.dummyMu.Lock()
	defer a.dummyMu.Unlock()

	if a.dummyHash == "" {
		hash, err := a.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			a.log.Warn().Err(err).Msg("could not prepare dummy hash")
			return ""
		}
		a.dummyHash = hash
	}
	return a.dummyHash
}

// Session validates a presented grant.
func (a *Authenticator) Session(ctx context.Context, token string) (*domain.Session, error) {
	return a.sessions.Validate(ctx, token)
}

// Logout revokes the session behind token. Tokens that are already invalid
// need no revocation and are ignored.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	session, err := a.sessions.Validate(ctx, token)
	if errors.Is(err, domain.ErrInvalidSession) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if err := a.sessions.Revoke(ctx, session); err != nil {
		a.log.Error().Err(err).Str("session_id", session.ID).Msg("session revocation failed")
		return fmt.Errorf("logout: %w", err)
	}

	metrics.SessionsRevokedTotal.Inc()
	a.log.Info().Str("username", session.Username).Str("session_id", session.ID).Msg("session revoked")
	return nil
}
