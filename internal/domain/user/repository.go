package user

import (
	"context"
	"time"

	"victim-aid-go/internal/domain/audit"
)

type Repository interface {
	audit.Writer
	Transaction(ctx context.Context, fn func(Repository) error) error
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int64, error)
	Create(ctx context.Context, user *User) error
	// CreateIfAbsent inserts user unless the username exists and reports
	// whether a row was written.
	CreateIfAbsent(ctx context.Context, user *User) (bool, error)
	SetActive(ctx context.Context, id uint, active bool) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}
