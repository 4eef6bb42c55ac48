package family

import (
	"context"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/audit"
)

type Repository interface {
	audit.Writer
	Transaction(ctx context.Context, fn func(Repository) error) error
	ListFamilies(ctx context.Context, scope access.Scope, filter ListFilter) ([]Family, int64, error)
	GetFamily(ctx context.Context, id uint) (*Family, error)
	HasVictimCreatedBy(ctx context.Context, familyID, userID uint) (bool, error)
	ListMembers(ctx context.Context, familyID uint) ([]Member, error)
	ListVictims(ctx context.Context, familyID uint) ([]VictimSummary, error)
	CreateFamily(ctx context.Context, family *Family) error
	UpdateFamily(ctx context.Context, family *Family) error
	DeleteFamily(ctx context.Context, id uint) error
	GetMember(ctx context.Context, id uint) (*Member, error)
	CreateMember(ctx context.Context, member *Member) error
	UpdateMember(ctx context.Context, member *Member) error
	DeleteMember(ctx context.Context, id uint) error
}
