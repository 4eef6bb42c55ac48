package aid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/domain/audit"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type CreateInput struct {
	FamilyID    uint
	Kind        string
	Description string
	// Submit creates the request directly in the submitted state.
	Submit bool
}

type UpdateInput struct {
	Kind        string
	Description string
}

type Service struct {
	repo  Repository
	audit *audit.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, auditLog *audit.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, audit: auditLog, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]Request, int64, error) {
	if err := access.Authorize(actor.Role, access.OpAidList); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, normalizeFilter(filter))
}

// Pending lists submitted requests awaiting a decision.
func (s *Service) Pending(ctx context.Context, actor access.Actor, filter ListFilter) ([]Request, int64, error) {
	if err := access.Authorize(actor.Role, access.OpAidPending); err != nil {
		return nil, 0, err
	}
	status := StatusSubmitted
	filter.Status = &status
	return s.repo.List(ctx, normalizeFilter(filter))
}

// Tracking lists requests newest first with per-status totals across all
// requests.
func (s *Service) Tracking(ctx context.Context, actor access.Actor, filter ListFilter) (*Tracking, error) {
	if err := access.Authorize(actor.Role, access.OpAidTracking); err != nil {
		return nil, err
	}

	requests, total, err := s.repo.List(ctx, normalizeFilter(filter))
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = make(map[Status]int64)
	}
	for _, status := range []Status{StatusPlanned, StatusSubmitted, StatusValidated, StatusRefused} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	return &Tracking{Requests: requests, Total: total, Counts: counts}, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uint) (*Request, error) {
	if err := access.Authorize(actor.Role, access.OpAidView); err != nil {
		return nil, err
	}
	return loadRequest(ctx, s.repo, id)
}

func (s *Service) Create(ctx context.Context, actor access.Actor, input CreateInput) (*Request, error) {
	if err := access.Authorize(actor.Role, access.OpAidCreate); err != nil {
		return nil, err
	}

	input.Kind = strings.TrimSpace(input.Kind)
	v := apperr.NewValidation("invalid aid request")
	if input.FamilyID == 0 {
		v.Add("family_id", "this field is required")
	}
	v.Required("kind", input.Kind)
	v.OneOf("kind", input.Kind, kinds)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.repo.FamilyExists(ctx, input.FamilyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.FieldError("family_id", "unknown family")
	}

	owner := actor.UserID
	request := &Request{
		FamilyID:    input.FamilyID,
		Kind:        input.Kind,
		Status:      StatusPlanned,
		Description: strings.TrimSpace(input.Description),
		CreatedByID: &owner,
	}
	if input.Submit {
		request.Status = StatusSubmitted
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, request); err != nil {
			if errors.Is(err, ErrFamilyNotFound) {
				return apperr.FieldError("family_id", "unknown family")
			}
			return err
		}
		_, err := s.audit.Record(ctx, tx, actor, audit.ActionAidCreated, describe(request))
		return err
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

// Update changes kind and description while the request is undecided.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uint, input UpdateInput) (*Request, error) {
	if err := access.Authorize(actor.Role, access.OpAidUpdate); err != nil {
		return nil, err
	}

	input.Kind = strings.TrimSpace(input.Kind)
	v := apperr.NewValidation("invalid aid request")
	v.Required("kind", input.Kind)
	v.OneOf("kind", input.Kind, kinds)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	var result Request
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		request, err := loadRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if request.Status.Terminal() {
			return apperr.StateConflict("aid request already "+string(request.Status), string(request.Status))
		}
		request.Kind = input.Kind
		request.Description = strings.TrimSpace(input.Description)
		if err := tx.UpdateDetails(ctx, request); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, actor, audit.ActionAidUpdated, describe(request)); err != nil {
			return err
		}
		result = *request
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Submit moves a planned request to submitted.
func (s *Service) Submit(ctx context.Context, actor access.Actor, id uint) (*Request, error) {
	if err := access.Authorize(actor.Role, access.OpAidSubmit); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, StatusPlanned, StatusSubmitted, audit.ActionAidSubmitted)
}

// Validate moves a submitted request to validated and records the decider.
// Validating an already validated request is a StateConflictError and
// writes nothing.
func (s *Service) Validate(ctx context.Context, actor access.Actor, id uint) (*Request, error) {
	if err := access.Authorize(actor.Role, access.OpAidValidate); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, StatusSubmitted, StatusValidated, audit.ActionAidValidated)
}

func (s *Service) Refuse(ctx context.Context, actor access.Actor, id uint) (*Request, error) {
	if err := access.Authorize(actor.Role, access.OpAidRefuse); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, id, StatusSubmitted, StatusRefused, audit.ActionAidRefused)
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id uint) error {
	if err := access.Authorize(actor.Role, access.OpAidDelete); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		request, err := loadRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, request.ID); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, actor, audit.ActionAidDeleted, describe(request))
		return err
	})
}

func (s *Service) transition(ctx context.Context, actor access.Actor, id uint, from, to Status, action string) (*Request, error) {
	var result Request
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		request, err := loadRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if request.Status != from {
			return conflict(request.Status, from)
		}

		var decidedBy *uint
		var decidedAt *time.Time
		if to.Terminal() {
			by := actor.UserID
			at := s.now().UTC()
			decidedBy, decidedAt = &by, &at
		}

		moved, err := tx.Transition(ctx, request.ID, from, to, decidedBy, decidedAt)
		if err != nil {
			return err
		}
		if !moved {
			current, err := loadRequest(ctx, tx, id)
			if err != nil {
				return err
			}
			return conflict(current.Status, from)
		}

		request.Status = to
		if decidedBy != nil {
			request.ValidatedByID = decidedBy
			request.DecidedAt = decidedAt
		}
		if _, err := s.audit.Record(ctx, tx, actor, action, describe(request)); err != nil {
			return err
		}
		result = *request
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func conflict(current, expected Status) error {
	switch current {
	case StatusPlanned:
		return apperr.StateConflict("aid request has not been submitted", string(current))
	case StatusSubmitted:
		if expected == StatusPlanned {
			return apperr.StateConflict("aid request already submitted", string(current))
		}
		return apperr.StateConflict("aid request changed concurrently", string(current))
	case StatusValidated:
		return apperr.StateConflict("aid request already validated", string(current))
	case StatusRefused:
		return apperr.StateConflict("aid request already refused", string(current))
	default:
		return apperr.StateConflict("aid request is in an unknown state", string(current))
	}
}

func loadRequest(ctx context.Context, repo Repository, id uint) (*Request, error) {
	request, err := repo.Get(ctx, id)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, apperr.NotFound("aid_request", id)
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

func normalizeFilter(filter ListFilter) ListFilter {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

func describe(r *Request) string {
	return fmt.Sprintf("aid request #%d (%s) for family #%d, status %s", r.ID, r.Kind, r.FamilyID, r.Status)
}
