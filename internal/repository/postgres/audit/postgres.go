package audit

import (
	"context"
	"strings"

	"gorm.io/gorm"

	auditdomain "victim-aid-go/internal/domain/audit"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts entry using db, which is usually a transaction handle owned
// by another repository.
func Append(ctx context.Context, db *gorm.DB, entry *auditdomain.Entry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *PostgresRepository) AppendEntry(ctx context.Context, entry *auditdomain.Entry) error {
	return Append(ctx, r.db, entry)
}

func (r *PostgresRepository) ListEntries(ctx context.Context, filter auditdomain.ListFilter) ([]auditdomain.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&auditdomain.Entry{})
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action ILIKE ?", "%"+action+"%")
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

	var entries []auditdomain.Entry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
