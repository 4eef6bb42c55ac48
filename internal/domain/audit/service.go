package audit

import (
	"context"

	"victim-aid-go/internal/domain/access"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns entries newest first, ties broken by id descending.
func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]Entry, int64, error) {
	if err := access.Authorize(actor.Role, access.OpAuditView); err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.ListEntries(ctx, filter)
}
