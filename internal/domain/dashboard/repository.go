package dashboard

import (
	"context"
	"time"

	"victim-aid-go/internal/domain/aid"
	"victim-aid-go/internal/domain/audit"
)

type Repository interface {
	// CountVictims counts non-deleted records, optionally limited to an owner
	// and to records created at or after since.
	CountVictims(ctx context.Context, createdBy *uint, since *time.Time) (int64, error)
	CountFamiliesWithVictimsBy(ctx context.Context, userID uint) (int64, error)
	CountRequests(ctx context.Context, createdBy *uint, status *aid.Status) (int64, error)
	CountFamiliesWithRequestsBy(ctx context.Context, userID uint) (int64, error)
	// CountFamiliesAided counts distinct families with a validated request.
	CountFamiliesAided(ctx context.Context) (int64, error)
	RecentActions(ctx context.Context, actorID *uint, limit int) ([]audit.Entry, error)
	RecentRequests(ctx context.Context, createdBy uint, limit int) ([]aid.Request, error)
}
