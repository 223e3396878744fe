// Package session issues and validates session grants as HS256-signed JWTs.
// Logout is supported through a revocation list keyed by the token id.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/credgate/auth-gateway/internal/core/domain"
	"github.com/credgate/auth-gateway/internal/core/ports"
)

const (
	issuer     = "credgate"
	defaultTTL = time.Hour
)

// Claims is the payload carried by every session token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager implements ports.SessionManager.
type JWTManager struct {
	secret  []byte
	ttl     time.Duration
	revoked ports.RevocationList
	now     func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration, revoked ports.RevocationList) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("session: signing secret must be provided")
	}
	if revoked == nil {
		return nil, errors.New("session: revocation list must be provided")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}, nil
}

// Issue signs a new grant for account.
func (m *JWTManager) Issue(_ context.Context, account *domain.Account) (*domain.SessionGrant, error) {
	now := m.now().UTC().Truncate(time.Second)
	expires := now.Add(m.ttl)
	id := uuid.NewString()

	claims := Claims{
		Username: account.Username,
		Role:     account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   account.Username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &domain.SessionGrant{
		ID:        id,
		Token:     signed,
		TokenType: domain.TokenTypeBearer,
		Username:  account.Username,
		Role:      account.Role,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

// Validate parses token, checks signature, issuer and expiry, then consults
// the revocation list.
func (m *JWTManager) Validate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSession, err)
	}
	if claims.ID == "" || claims.Username == "" {
		return nil, domain.ErrInvalidSession
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrInvalidSession
	}

	return &domain.Session{
		ID:        claims.ID,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// Revoke blocks the session for the rest of its lifetime.
func (m *JWTManager) Revoke(ctx context.Context, s *domain.Session) error {
	return m.revoked.Revoke(ctx, s.ID, s.TTL(m.now()))
}
