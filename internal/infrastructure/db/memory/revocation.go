package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationList is a map-backed ports.RevocationList. Expired entries are
// dropped lazily on lookup and on each Revoke.
type RevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{revoked: make(map[string]time.Time), now: time.Now}
}

func (l *RevocationList) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, until := range l.revoked {
		if !now.Before(until) {
			delete(l.revoked, k)
		}
	}
	l.revoked[id] = now.Add(ttl)
	return nil
}

func (l *RevocationList) IsRevoked(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.revoked[id]
	if !ok {
		return false, nil
	}
	if !l.now().Before(until) {
		delete(l.revoked, id)
		return false, nil
	}
	return true, nil
}
