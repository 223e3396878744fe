package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/credgate/auth-gateway/internal/core/domain"
)

// RevocationList records logged-out session ids in Redis.
// Key format: session:revoked:<session_id>
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList creates a RevocationList wrapping the given Redis client.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks id as revoked for ttl, which should be the session's remaining
// lifetime; after that the token is rejected on expiry alone.
func (l *RevocationList) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, l.key(id), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke session: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether id has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: revocation check: %w", domain.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

func (l *RevocationList) key(id string) string {
	return "session:revoked:" + id
}
