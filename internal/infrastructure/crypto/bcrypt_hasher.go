// Package crypto provides the password hasher used for credential storage.
package crypto

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/credgate/auth-gateway/internal/core/domain"
	"github.com/credgate/auth-gateway/internal/metrics"
)

// maxPasswordBytes is bcrypt's input limit. Longer inputs are truncated
// rather than rejected.
const maxPasswordBytes = 72

// Runner executes CPU-bound work off the request goroutine.
type Runner interface {
	Do(ctx context.Context, fn func() error) error
}

// BcryptHasher hashes passwords with bcrypt. bcrypt embeds a random salt in
// every hash, so hashing the same plaintext twice gives different strings.
type BcryptHasher struct {
	cost   int
	runner Runner
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is zero. A nil runner makes every call run inline.
func NewBcryptHasher(cost int, runner Runner) (*BcryptHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost, runner: runner}, nil
}

// Hash returns the bcrypt encoding of plaintext. Failures other than ctx
// ending are reported as domain.ErrHashing.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	var hashed []byte
	err := h.run(ctx, func() error {
		start := time.Now()
		defer observe("hash", start)

		var err error
		hashed, err = bcrypt.GenerateFromPassword(truncate(plaintext), h.cost)
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", domain.ErrHashing, err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash, or ctx
// ending before the comparison finishes, counts as a mismatch.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) bool {
	err := h.run(ctx, func() error {
		start := time.Now()
		defer observe("verify", start)

		return bcrypt.CompareHashAndPassword([]byte(hash), truncate(plaintext))
	})
	return err == nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) run(ctx context.Context, fn func() error) error {
	if h.runner == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn()
	}
	return h.runner.Do(ctx, fn)
}

func truncate(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func observe(op string, start time.Time) {
	metrics.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
