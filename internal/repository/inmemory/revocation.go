package inmemory

import (
	"context"
	"sync"
	"time"
)

// RevocationList keeps revoked token ids in process memory. It is meant for
// single-instance deployments and tests.
type RevocationList struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		items: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (l *RevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.items[jti] = now.Add(ttl)
	for key, expiresAt := range l.items {
		if !expiresAt.After(now) {
			delete(l.items, key)
		}
	}
	return nil
}

func (l *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	expiresAt, ok := l.items[jti]
	if !ok {
		return false, nil
	}
	if !expiresAt.After(l.now()) {
		delete(l.items, jti)
		return false, nil
	}
	return true, nil
}
