package family

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"victim-aid-go/internal/domain/access"
	auditdomain "victim-aid-go/internal/domain/audit"
	familydomain "victim-aid-go/internal/domain/family"
	auditrepo "victim-aid-go/internal/repository/postgres/audit"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(familydomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) AppendEntry(ctx context.Context, entry *auditdomain.Entry) error {
	return auditrepo.Append(ctx, r.db, entry)
}

func (r *PostgresRepository) ListFamilies(ctx context.Context, scope access.Scope, filter familydomain.ListFilter) ([]familydomain.Family, int64, error) {
	query := r.db.WithContext(ctx).Model(&familydomain.Family{})
	if scope.Restricted() {
		query = query.Where(
			"EXISTS (SELECT 1 FROM victims WHERE victims.family_id = families.id AND victims.created_by_id = ? AND victims.deleted_at IS NULL)",
			*scope.OwnerID,
		)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		query = query.Where("city ILIKE ?", city)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name asc, id asc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var families []familydomain.Family
	if err := query.Find(&families).Error; err != nil {
		return nil, 0, err
	}
	return families, total, nil
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

func (r *PostgresRepository) HasVictimCreatedBy(ctx context.Context, familyID, userID uint) (bool, error) {
	var exists bool
	if err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM victims WHERE family_id = ? AND created_by_id = ? AND deleted_at IS NULL)", familyID, userID).
		Scan(&exists).Error; err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, familyID uint) ([]familydomain.Member, error) {
	var members []familydomain.Member
	if err := r.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("created_at asc, id asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) ListVictims(ctx context.Context, familyID uint) ([]familydomain.VictimSummary, error) {
	var victims []familydomain.VictimSummary
	if err := r.db.WithContext(ctx).
		Where("family_id = ? AND deleted_at IS NULL", familyID).
		Order("last_name asc, first_name asc").
		Find(&victims).Error; err != nil {
		return nil, err
	}
	return victims, nil
}

func (r *PostgresRepository) CreateFamily(ctx context.Context, family *familydomain.Family) error {
	return r.db.WithContext(ctx).Create(family).Error
}

func (r *PostgresRepository) UpdateFamily(ctx context.Context, family *familydomain.Family) error {
	result := r.db.WithContext(ctx).
		Model(&familydomain.Family{}).
		Where("id = ?", family.ID).
		Updates(map[string]interface{}{
			"name":               family.Name,
			"type":               family.Type,
			"address":            family.Address,
			"city":               family.City,
			"phone":              family.Phone,
			"economic_situation": family.EconomicSituation,
			"additional_info":    family.AdditionalInfo,
			"person_count":       family.PersonCount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return familydomain.ErrFamilyNotFound
	}
	return nil
}

// DeleteFamily relies on ON DELETE CASCADE for members, victims and aid
// requests.
func (r *PostgresRepository) DeleteFamily(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&familydomain.Family{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return familydomain.ErrFamilyNotFound
	}
	return nil
}

func (r *PostgresRepository) GetMember(ctx context.Context, id uint) (*familydomain.Member, error) {
	var member familydomain.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, familydomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) CreateMember(ctx context.Context, member *familydomain.Member) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return familydomain.ErrFamilyNotFound
	}
	return err
}

func (r *PostgresRepository) UpdateMember(ctx context.Context, member *familydomain.Member) error {
	result := r.db.WithContext(ctx).
		Model(&familydomain.Member{}).
		Where("id = ?", member.ID).
		Updates(map[string]interface{}{
			"last_name":       member.LastName,
			"first_name":      member.FirstName,
			"birth_date":      member.BirthDate,
			"sex":             member.Sex,
			"relation":        member.Relation,
			"profession":      member.Profession,
			"phone":           member.Phone,
			"email":           member.Email,
			"additional_info": member.AdditionalInfo,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return familydomain.ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&familydomain.Member{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return familydomain.ErrMemberNotFound
	}
	return nil
}
