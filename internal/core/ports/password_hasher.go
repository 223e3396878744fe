package ports

import "context"

// PasswordHasher hashes and verifies plaintext passwords with a salted, slow
// hash. Verify never errors: a malformed hash is a failed verification.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) bool
}
