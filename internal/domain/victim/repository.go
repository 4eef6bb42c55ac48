package victim

import (
	"context"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/audit"
	"victim-aid-go/internal/domain/family"
)

type Repository interface {
	audit.Writer
	Transaction(ctx context.Context, fn func(Repository) error) error
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Victim, int64, error)
	Get(ctx context.Context, id uint) (*Victim, error)
	// GetByCertificateKey only finds records that are not deleted.
	GetByCertificateKey(ctx context.Context, key string) (*Victim, error)
	// MatriculeTaken ignores the record with excludeID (0 excludes nothing).
	MatriculeTaken(ctx context.Context, matricule string, excludeID uint) (bool, error)
	// Create and Update return ErrMatriculeTaken when the store rejects a
	// duplicate matricule.
	Create(ctx context.Context, victim *Victim) error
	Update(ctx context.Context, victim *Victim) error
	Delete(ctx context.Context, id uint) error
	GetFamily(ctx context.Context, id uint) (*family.Family, error)
	FamilyHasVictimBy(ctx context.Context, familyID, userID uint) (bool, error)
	ListFamilyMembers(ctx context.Context, familyID uint) ([]family.Member, error)
	CreateFamily(ctx context.Context, f *family.Family) error
	SetFamily(ctx context.Context, victimID, familyID uint) error
}
