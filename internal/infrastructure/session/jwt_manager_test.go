package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/credgate/auth-gateway/internal/core/domain"
	"github.com/credgate/auth-gateway/internal/infrastructure/db/memory"
)

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Duration) error {
	return domain.ErrStoreUnavailable
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, domain.ErrStoreUnavailable
}

func newManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("test-secret", time.Hour, memory.NewRevocationList())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func testAccount() *domain.Account {
	return domain.NewAccount("alice", "hash", "", time.Now())
}

func TestNewJWTManager_RequiresSecretAndList(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour, memory.NewRevocationList()); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewJWTManager("secret", time.Hour, nil); err == nil {
		t.Fatalf("expected error for nil revocation list")
	}

	m, err := NewJWTManager("secret", 0, memory.NewRevocationList())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ttl != defaultTTL {
		t.Fatalf("expected default ttl, got %v", m.ttl)
	}
}

func TestJWTManager_IssueAndValidate(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	grant, err := m.Issue(ctx, testAccount())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if grant.ID == "" || grant.Token == "" {
		t.Fatalf("grant missing id or token: %+v", grant)
	}
	if got := grant.ExpiresAt.Sub(grant.IssuedAt); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %v", got)
	}

	s, err := m.Validate(ctx, grant.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.ID != grant.ID || s.Username != "alice" || s.Role != domain.RoleUser {
		t.Fatalf("unexpected session: %+v", s)
	}
	if !s.ExpiresAt.Equal(grant.ExpiresAt) {
		t.Fatalf("expiry mismatch: %v vs %v", s.ExpiresAt, grant.ExpiresAt)
	}

	other, err := m.Issue(ctx, testAccount())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if other.ID == grant.ID {
		t.Fatalf("session ids must be unique")
	}
}

func TestJWTManager_Validate_Rejects(t *testing.T) {
	m := newManager(t)
	grant, err := m.Issue(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	otherKey, _ := NewJWTManager("other-secret", time.Hour, memory.NewRevocationList())
	forged, _ := otherKey.Issue(context.Background(), testAccount())

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "sid",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"wrong secret": forged.Token,
		"alg none":     unsigned,
		"tampered":     grant.Token + "x",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(context.Background(), token); !errors.Is(err, domain.ErrInvalidSession) {
				t.Fatalf("expected ErrInvalidSession, got %v", err)
			}
		})
	}
}

func TestJWTManager_Validate_Expired(t *testing.T) {
	m := newManager(t)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	grant, err := m.Issue(context.Background(), testAccount())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := m.Validate(context.Background(), grant.Token); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for expired token, got %v", err)
	}
}

func TestJWTManager_Revoke(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	grant, _ := m.Issue(ctx, testAccount())
	s, err := m.Validate(ctx, grant.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := m.Revoke(ctx, s); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := m.Validate(ctx, grant.Token); !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession after revoke, got %v", err)
	}
}

func TestJWTManager_Validate_RevocationStoreDown(t *testing.T) {
	m, err := NewJWTManager("test-secret", time.Hour, failingRevocations{})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	grant, _ := m.Issue(context.Background(), testAccount())

	_, err = m.Validate(context.Background(), grant.Token)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("store failure must not look like an invalid session")
	}
}
