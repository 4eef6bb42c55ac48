package aid

import (
	"context"
	"time"

	"victim-aid-go/internal/domain/audit"
)

type Repository interface {
	audit.Writer
	Transaction(ctx context.Context, fn func(Repository) error) error
	List(ctx context.Context, filter ListFilter) ([]Request, int64, error)
	Get(ctx context.Context, id uint) (*Request, error)
	FamilyExists(ctx context.Context, familyID uint) (bool, error)
	Create(ctx context.Context, request *Request) error
	UpdateDetails(ctx context.Context, request *Request) error
	// Transition moves the request from one status to another only if it is
	// still in from. It reports false when another writer got there first.
	Transition(ctx context.Context, id uint, from, to Status, decidedBy *uint, decidedAt *time.Time) (bool, error)
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
