package aid

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	aiddomain "victim-aid-go/internal/domain/aid"
	auditdomain "victim-aid-go/internal/domain/audit"
	auditrepo "victim-aid-go/internal/repository/postgres/audit"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(aiddomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) AppendEntry(ctx context.Context, entry *auditdomain.Entry) error {
	return auditrepo.Append(ctx, r.db, entry)
}

func (r *PostgresRepository) List(ctx context.Context, filter aiddomain.ListFilter) ([]aiddomain.Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&aiddomain.Request{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FamilyID != nil {
		query = query.Where("family_id = ?", *filter.FamilyID)
	}
	if filter.CreatedByID != nil {
		query = query.Where("created_by_id = ?", *filter.CreatedByID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Family").Order("created_at desc, id desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var requests []aiddomain.Request
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uint) (*aiddomain.Request, error) {
	var request aiddomain.Request
	if err := r.db.WithContext(ctx).Preload("Family").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, aiddomain.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *PostgresRepository) FamilyExists(ctx context.Context, familyID uint) (bool, error) {
	var exists bool
	if err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM families WHERE id = ?)", familyID).
		Scan(&exists).Error; err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, request *aiddomain.Request) error {
	err := r.db.WithContext(ctx).Omit("Family").Create(request).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return aiddomain.ErrFamilyNotFound
	}
	return err
}

func (r *PostgresRepository) UpdateDetails(ctx context.Context, request *aiddomain.Request) error {
	result := r.db.WithContext(ctx).
		Model(&aiddomain.Request{}).
		Where("id = ?", request.ID).
		Updates(map[string]interface{}{
			"kind":        request.Kind,
			"description": request.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return aiddomain.ErrRequestNotFound
	}
	return nil
}

// Transition is a compare-and-set on status; concurrent deciders race on the
// WHERE clause and exactly one of them sees a changed row.
func (r *PostgresRepository) Transition(ctx context.Context, id uint, from, to aiddomain.Status, decidedBy *uint, decidedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if decidedBy != nil {
		updates["validated_by_id"] = *decidedBy
		updates["decided_at"] = decidedAt
	}

	result := r.db.WithContext(ctx).
		Model(&aiddomain.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&aiddomain.Request{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return aiddomain.ErrRequestNotFound
	}
	return nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[aiddomain.Status]int64, error) {
	type statusRow struct {
		Status aiddomain.Status `gorm:"column:status"`
		Count  int64            `gorm:"column:count"`
	}

	var rows []statusRow
	if err := r.db.WithContext(ctx).
		Model(&aiddomain.Request{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[aiddomain.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
