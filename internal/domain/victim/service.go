package victim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"victim-aid-go/internal/domain/access"
	"victim-aid-go/internal/domain/apperr"
	"victim-aid-go/internal/domain/audit"
	"victim-aid-go/internal/domain/family"
	"victim-aid-go/internal/storage"
)

const (
	defaultListLimit      = 50
	maxListLimit          = 200
	certificatePrefix     = "actes_deces/"
	defaultMaxAttachment  = 10 << 20
	defaultURLExpiry      = 15 * time.Minute
	matriculeTakenMessage = "a victim record with this matricule already exists"
)

// FileStore is the part of storage.Store the service needs.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, opts storage.PutOptions) (storage.Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Service struct {
	repo          Repository
	files         FileStore
	audit         *audit.Logger
	now           func() time.Time
	maxAttachment int64
	urlExpiry     time.Duration
}

type Option func(*Service)

func WithMaxAttachmentSize(size int64) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxAttachment = size
		}
	}
}

func WithURLExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		if expiry > 0 {
			s.urlExpiry = expiry
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, files FileStore, auditLog *audit.Logger, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		files:         files,
		audit:         auditLog,
		now:           time.Now,
		maxAttachment: defaultMaxAttachment,
		urlExpiry:     defaultURLExpiry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]Victim, int64, error) {
	if err := access.Authorize(actor.Role, access.OpVictimList); err != nil {
		return nil, 0, err
	}

	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.List(ctx, access.ScopeFor(actor, access.OpVictimList), filter)
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uint) (*Detail, error) {
	if err := access.Authorize(actor.Role, access.OpVictimView); err != nil {
		return nil, err
	}

	victim, err := loadVictim(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := access.CheckVictimOwnership(actor, access.OpVictimView, victim.CreatedByID); err != nil {
		return nil, err
	}

	detail := &Detail{Victim: *victim}
	if victim.FamilyID != nil {
		fam, err := s.repo.GetFamily(ctx, *victim.FamilyID)
		if err != nil && !errors.Is(err, family.ErrFamilyNotFound) {
			return nil, err
		}
		if fam != nil {
			detail.Family = fam
			members, err := s.repo.ListFamilyMembers(ctx, fam.ID)
			if err != nil {
				return nil, err
			}
			detail.Members = members
		}
	}
	if victim.DeathCertificateKey != "" && s.files != nil {
		url, err := s.files.URL(ctx, victim.DeathCertificateKey, s.urlExpiry)
		if err != nil {
			return nil, err
		}
		detail.DeathCertificateURL = url
	}

	return detail, nil
}

// Certificate resolves a stored death certificate key to the live record that
// holds it, applying the same visibility as Get.
func (s *Service) Certificate(ctx context.Context, actor access.Actor, key string) (*Victim, error) {
	if err := access.Authorize(actor.Role, access.OpVictimView); err != nil {
		return nil, err
	}

	victim, err := s.repo.GetByCertificateKey(ctx, key)
	if errors.Is(err, ErrVictimNotFound) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := access.CheckVictimOwnership(actor, access.OpVictimView, victim.CreatedByID); err != nil {
		return nil, err
	}
	return victim, nil
}

// Create stores a new record owned by actor. The matricule pre-check only
// gives a friendly early answer; the store's unique index decides races.
func (s *Service) Create(ctx context.Context, actor access.Actor, input Input, attachment *Attachment) (*Victim, error) {
	if err := access.Authorize(actor.Role, access.OpVictimCreate); err != nil {
		return nil, err
	}

	victim := &Victim{}
	if err := input.apply(victim, s.now()); err != nil {
		return nil, err
	}
	if err := validateAttachment(attachment, s.maxAttachment); err != nil {
		return nil, err
	}
	if err := checkMatricule(ctx, s.repo, victim.Matricule, 0); err != nil {
		return nil, err
	}
	if err := checkFamilyLink(ctx, s.repo, actor, victim.FamilyID, nil); err != nil {
		return nil, err
	}

	owner := actor.UserID
	victim.CreatedByID = &owner

	key, err := s.upload(ctx, attachment)
	if err != nil {
		return nil, err
	}
	victim.DeathCertificateKey = key

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, victim); err != nil {
			return mapStoreError(err)
		}
		_, err := s.audit.Record(ctx, tx, actor, audit.ActionVictimCreated, describe(victim))
		return err
	})
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	return victim, nil
}

// Update rewrites the record. The ownership check and the write share one
// transaction.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uint, input Input, attachment *Attachment) (*Victim, error) {
	if err := access.Authorize(actor.Role, access.OpVictimUpdate); err != nil {
		return nil, err
	}
	if err := validateAttachment(attachment, s.maxAttachment); err != nil {
		return nil, err
	}

	var (
		updated  Victim
		key      string
		previous string
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := loadVictim(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := access.CheckVictimOwnership(actor, access.OpVictimUpdate, current.CreatedByID); err != nil {
			return err
		}

		updated = *current
		if err := input.apply(&updated, s.now()); err != nil {
			return err
		}
		if err := checkMatricule(ctx, tx, updated.Matricule, current.ID); err != nil {
			return err
		}
		if err := checkFamilyLink(ctx, tx, actor, updated.FamilyID, current.FamilyID); err != nil {
			return err
		}

		key, err = s.upload(ctx, attachment)
		if err != nil {
			return err
		}
		if key != "" {
			previous = current.DeathCertificateKey
			updated.DeathCertificateKey = key
		}

		if err := tx.Update(ctx, &updated); err != nil {
			return mapStoreError(err)
		}
		_, err = s.audit.Record(ctx, tx, actor, audit.ActionVictimUpdated, describe(&updated))
		return err
	})
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	s.discard(ctx, previous)
	return &updated, nil
}

// Delete soft-deletes the record, freeing its matricule.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uint) error {
	if err := access.Authorize(actor.Role, access.OpVictimDelete); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		victim, err := loadVictim(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := access.CheckVictimOwnership(actor, access.OpVictimDelete, victim.CreatedByID); err != nil {
			return err
		}
		if err := tx.Delete(ctx, victim.ID); err != nil {
			return err
		}
		_, err = s.audit.Record(ctx, tx, actor, audit.ActionVictimDeleted, describe(victim))
		return err
	})
}

// AttachFamily creates a family from input and links it to a victim that has
// none yet.
func (s *Service) AttachFamily(ctx context.Context, actor access.Actor, victimID uint, input family.Input) (*family.Family, error) {
	if err := access.Authorize(actor.Role, access.OpVictimAttachFamily); err != nil {
		return nil, err
	}

	fam, err := family.NewFamily(input)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		victim, err := loadVictim(ctx, tx, victimID)
		if err != nil {
			return err
		}
		if err := access.CheckVictimOwnership(actor, access.OpVictimAttachFamily, victim.CreatedByID); err != nil {
			return err
		}
		if victim.FamilyID != nil {
			return apperr.FieldError("family_id", "victim is already linked to a family")
		}
		if err := tx.CreateFamily(ctx, fam); err != nil {
			return err
		}
		if err := tx.SetFamily(ctx, victim.ID, fam.ID); err != nil {
			return err
		}
		details := fmt.Sprintf("family #%d %s attached to %s", fam.ID, fam.Name, describe(victim))
		_, err = s.audit.Record(ctx, tx, actor, audit.ActionVictimFamilyAttached, details)
		return err
	})
	if err != nil {
		return nil, err
	}

	return fam, nil
}

func checkMatricule(ctx context.Context, repo Repository, matricule string, excludeID uint) error {
	taken, err := repo.MatriculeTaken(ctx, matricule, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.FieldError("matricule", matriculeTakenMessage)
	}
	return nil
}

// checkFamilyLink guards setting a record's family. Keeping the current link
// needs nothing more; a new link needs the same family ownership that
// attaching one does.
func checkFamilyLink(ctx context.Context, repo Repository, actor access.Actor, familyID, linked *uint) error {
	if familyID == nil {
		return nil
	}
	if linked != nil && *linked == *familyID {
		return nil
	}
	if _, err := repo.GetFamily(ctx, *familyID); err != nil {
		if errors.Is(err, family.ErrFamilyNotFound) {
			return apperr.FieldError("family_id", "unknown family")
		}
		return err
	}

	owns := false
	if access.Grant(actor.Role, access.OpVictimAttachFamily) == access.LevelOwn {
		var err error
		owns, err = repo.FamilyHasVictimBy(ctx, *familyID, actor.UserID)
		if err != nil {
			return err
		}
	}
	return access.CheckFamilyOwnership(actor, access.OpVictimAttachFamily, owns)
}

func (s *Service) upload(ctx context.Context, attachment *Attachment) (string, error) {
	if attachment == nil {
		return "", nil
	}
	if s.files == nil {
		return "", apperr.FieldError("acte_deces", "attachments are not enabled")
	}
	key := certificatePrefix + uuid.NewString() + attachment.extension()
	if _, err := s.files.Put(ctx, key, attachment.Body, storage.PutOptions{ContentType: attachment.ContentType}); err != nil {
		return "", fmt.Errorf("store death certificate: %w", err)
	}
	return key, nil
}

// discard removes an orphaned attachment; failures leave a stray object only.
func (s *Service) discard(ctx context.Context, key string) {
	if key == "" || s.files == nil {
		return
	}
	_, _ = s.files.Delete(context.WithoutCancel(ctx), key)
}

// mapStoreError turns constraint violations the pre-checks lost a race on
// into field errors.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, ErrMatriculeTaken):
		return apperr.FieldError("matricule", matriculeTakenMessage)
	case errors.Is(err, family.ErrFamilyNotFound):
		return apperr.FieldError("family_id", "unknown family")
	default:
		return err
	}
}

func loadVictim(ctx context.Context, repo Repository, id uint) (*Victim, error) {
	victim, err := repo.Get(ctx, id)
	if errors.Is(err, ErrVictimNotFound) {
		return nil, apperr.NotFound("victim", id)
	}
	if err != nil {
		return nil, err
	}
	return victim, nil
}

func describe(v *Victim) string {
	return fmt.Sprintf("victim #%d %s (%s)", v.ID, v.FullName(), v.Matricule)
}
