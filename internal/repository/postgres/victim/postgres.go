package victim

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"victim-aid-go/internal/domain/access"
	auditdomain "victim-aid-go/internal/domain/audit"
	familydomain "victim-aid-go/internal/domain/family"
	victimdomain "victim-aid-go/internal/domain/victim"
	auditrepo "victim-aid-go/internal/repository/postgres/audit"
)

var updatableColumns = []string{
	"matricule", "last_name", "first_name", "birth_date", "sex", "nationality",
	"civil_status", "profession", "address", "phone", "email", "grade",
	"death_date", "death_place", "death_certificate_key", "incident_type",
	"incident_description", "incident_date", "incident_place", "family_id",
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(victimdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) AppendEntry(ctx context.Context, entry *auditdomain.Entry) error {
	return auditrepo.Append(ctx, r.db, entry)
}

func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter victimdomain.ListFilter) ([]victimdomain.Victim, int64, error) {
	query := r.db.WithContext(ctx).Model(&victimdomain.Victim{})
	if scope.Restricted() {
		query = query.Where("created_by_id = ?", *scope.OwnerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("matricule ILIKE ? OR last_name ILIKE ? OR first_name ILIKE ?", pattern, pattern, pattern)
	}
	if filter.FamilyID != nil {
		query = query.Where("family_id = ?", *filter.FamilyID)
	}
	if filter.HasFamily != nil {
		if *filter.HasFamily {
			query = query.Where("family_id IS NOT NULL")
		} else {
			query = query.Where("family_id IS NULL")
		}
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var victims []victimdomain.Victim
	if err := query.Find(&victims).Error; err != nil {
		return nil, 0, err
	}
	return victims, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uint) (*victimdomain.Victim, error) {
	var victim victimdomain.Victim
	if err := r.db.WithContext(ctx).First(&victim, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, victimdomain.ErrVictimNotFound
		}
		return nil, err
	}
	return &victim, nil
}

func (r *PostgresRepository) GetByCertificateKey(ctx context.Context, key string) (*victimdomain.Victim, error) {
	var victim victimdomain.Victim
	if err := r.db.WithContext(ctx).Where("death_certificate_key = ?", key).First(&victim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, victimdomain.ErrVictimNotFound
		}
		return nil, err
	}
	return &victim, nil
}

func (r *PostgresRepository) MatriculeTaken(ctx context.Context, matricule string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&victimdomain.Victim{}).Where("matricule = ?", matricule)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) Create(ctx context.Context, victim *victimdomain.Victim) error {
	return translate(r.db.WithContext(ctx).Create(victim).Error)
}

func (r *PostgresRepository) Update(ctx context.Context, victim *victimdomain.Victim) error {
	result := r.db.WithContext(ctx).
		Model(victim).
		Select(updatableColumns).
		Updates(victim)
	if err := translate(result.Error); err != nil {
		return err
	}
	if result.RowsAffected == 0 {
		return victimdomain.ErrVictimNotFound
	}
	return nil
}

// Delete soft-deletes the record; the partial unique index then frees its
// matricule.
func (r *PostgresRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&victimdomain.Victim{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return victimdomain.ErrVictimNotFound
	}
	return nil
}

func (r *PostgresRepository) GetFamily(ctx context.Context, id uint) (*familydomain.Family, error) {
	var family familydomain.Family
	if err := r.db.WithContext(ctx).First(&family, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrFamilyNotFound
		}
		return nil, err
	}
	return &family, nil
}

func (r *PostgresRepository) FamilyHasVictimBy(ctx context.Context, familyID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&victimdomain.Victim{}).
		Where("family_id = ? AND created_by_id = ?", familyID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) ListFamilyMembers(ctx context.Context, familyID uint) ([]familydomain.Member, error) {
	var members []familydomain.Member
	if err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at asc, id asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) CreateFamily(ctx context.Context, family *familydomain.Family) error {
	return r.db.WithContext(ctx).Create(family).Error
}

// SetFamily links a victim that has no family yet.
func (r *PostgresRepository) SetFamily(ctx context.Context, victimID, familyID uint) error {
	result := r.db.WithContext(ctx).
		Model(&victimdomain.Victim{}).
		Where("id = ? AND family_id IS NULL", victimID).
		Update("family_id", familyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return victimdomain.ErrVictimNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return victimdomain.ErrMatriculeTaken
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return familydomain.ErrFamilyNotFound
	default:
		return err
	}
}
