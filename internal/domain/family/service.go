package family

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/domain/audit"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo  Repository
	audit *audit.Logger
}

func NewService(repo Repository, auditLog *audit.Logger) *Service {
	return &Service{repo: repo, audit: auditLog}
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]Family, int64, error) {
	if err := access.Authorize(actor.Role, access.OpFamilyList); err != nil {
		return nil, 0, err
	}

	filter.Search = strings.TrimSpace(filter.Search)
	filter.City = strings.TrimSpace(filter.City)
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.ListFamilies(ctx, access.ScopeFor(actor, access.OpFamilyList), filter)
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uint) (*Detail, error) {
	if err := access.Authorize(actor.Role, access.OpFamilyView); err != nil {
		return nil, err
	}

	family, err := loadFamily(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(ctx, s.repo, actor, access.OpFamilyView, family.ID); err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, family.ID)
	if err != nil {
		return nil, err
	}
	victims, err := s.repo.ListVictims(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	return &Detail{Family: *family, Members: members, Victims: victims}, nil
}

func (s *Service) Create(ctx context.Context, actor access.Actor, input Input) (*Family, error) {
	if err := access.Authorize(actor.Role, access.OpFamilyCreate); err != nil {
		return nil, err
	}

	family, err := NewFamily(input)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateFamily(ctx, family); err != nil {
			return err
		}
		_, err := s.audit.Record(ctx, tx, actor, audit.ActionFamilyCreated, fmt.Sprintf("family #%d %s", family.ID, family.Name))
		return err
	})
	if err != nil {
		return nil, err
	}

	return family, nil
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id uint, input Input) (*Family, error) {
	if err := access.Authorize(actor.Role, access.OpFamilyUpdate); err != nil {
		return nil, err
	}

	var result Family
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		family, err := loadFamily(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkOwnership(ctx, tx, actor, access.OpFamilyUpdate, family.ID); err != nil {
			return err
		}
		if err := input.apply(family); err != nil {
			return err
		}
		if err := tx.UpdateFamily(ctx, family); err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx, actor, audit.ActionFamilyUpdated, fmt.Sprintf("family #%d %s", family.ID, family.Name)); err != nil {
			return err
		}
		result = *family
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Delete removes the family together with its members, victims and aid requests.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uint) error {
	if err := access.Authorize(actor.Role, access.OpFamilyDelete); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		family, err := loadFamily(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkOwnership(ctx, tx, actor, access.OpFamilyDelete, family.ID); err != nil {
			return err
		}
		if err := tx.DeleteFamily(ctx, family.ID); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, actor, audit.ActionFamilyDeleted, fmt.Sprintf("family #%d %s", family.ID, family.Name))
		return err
	})
}

func (s *Service) ListMembers(ctx context.Context, actor access.Actor, familyID uint) ([]Member, error) {
	if err := access.Authorize(actor.Role, access.OpFamilyView); err != nil {
		return nil, err
	}

	family, err := loadFamily(ctx, s.repo, familyID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(ctx, s.repo, actor, access.OpFamilyView, family.ID); err != nil {
		return nil, err
	}

	return s.repo.ListMembers(ctx, family.ID)
}

func (s *Service) AddMember(ctx context.Context, actor access.Actor, familyID uint, input MemberInput) (*Member, error) {
	if err := access.Authorize(actor.Role, access.OpMemberCreate); err != nil {
		return nil, err
	}

	var result Member
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		family, err := loadFamily(ctx, tx, familyID)
		if err != nil {
			return err
		}
		if err := checkOwnership(ctx, tx, actor, access.OpMemberCreate, family.ID); err != nil {
			return err
		}

		member := Member{FamilyID: family.ID}
		if err := input.apply(&member); err != nil {
			return err
		}
		if err := tx.CreateMember(ctx, &member); err != nil {
			return err
		}
		details := fmt.Sprintf("member #%d %s %s of family #%d", member.ID, member.FirstName, member.LastName, family.ID)
		if _, err := s.audit.Record(ctx, tx, actor, audit.ActionMemberCreated, details); err != nil {
			return err
		}
		result = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) UpdateMember(ctx context.Context, actor access.Actor, memberID uint, input MemberInput) (*Member, error) {
	if err := access.Authorize(actor.Role, access.OpMemberUpdate); err != nil {
		return nil, err
	}

	var result Member
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		member, err := loadMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if err := checkOwnership(ctx, tx, actor, access.OpMemberUpdate, member.FamilyID); err != nil {
			return err
		}
		if err := input.apply(member); err != nil {
			return err
		}
		if err := tx.UpdateMember(ctx, member); err != nil {
			return err
		}
		details := fmt.Sprintf("member #%d %s %s of family #%d", member.ID, member.FirstName, member.LastName, member.FamilyID)
		if _, err := s.audit.Record(ctx, tx, actor, audit.ActionMemberUpdated, details); err != nil {
			return err
		}
		result = *member
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *Service) RemoveMember(ctx context.Context, actor access.Actor, memberID uint) error {
	if err := access.Authorize(actor.Role, access.OpMemberDelete); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		member, err := loadMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if err := checkOwnership(ctx, tx, actor, access.OpMemberDelete, member.FamilyID); err != nil {
			return err
		}
		if err := tx.DeleteMember(ctx, member.ID); err != nil {
			return err
		}
		details := fmt.Sprintf("member #%d %s %s of family #%d", member.ID, member.FirstName, member.LastName, member.FamilyID)
		_, err = s.audit.Record(ctx, tx, actor, audit.ActionMemberDeleted, details)
		return err
	})
}

func loadFamily(ctx context.Context, repo Repository, id uint) (*Family, error) {
	family, err := repo.GetFamily(ctx, id)
	if errors.Is(err, ErrFamilyNotFound) {
		return nil, apperr.NotFound("family", id)
	}
	if err != nil {
		return nil, err
	}
	return family, nil
}

func loadMember(ctx context.Context, repo Repository, id uint) (*Member, error) {
	member, err := repo.GetMember(ctx, id)
	if errors.Is(err, ErrMemberNotFound) {
		return nil, apperr.NotFound("family_member", id)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// checkOwnership only queries victim links when the actor's grant for op is
// limited to its own records.
func checkOwnership(ctx context.Context, repo Repository, actor access.Actor, op access.Operation, familyID uint) error {
	owns := false
	if access.Grant(actor.Role, op) == access.LevelOwn {
		var err error
		owns, err = repo.HasVictimCreatedBy(ctx, familyID, actor.UserID)
		if err != nil {
			return err
		}
	}
	return access.CheckFamilyOwnership(actor, op, owns)
}
