package auth

import (
	"context"
	"time"
)

// RevocationList remembers logged-out token ids until they would expire.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
