package dashboard

import (
	"context"
	"time"

	"gorm.io/gorm"

	aiddomain "victim-aid-go/internal/domain/aid"
	auditdomain "victim-aid-go/internal/domain/audit"
	victimdomain "victim-aid-go/internal/domain/victim"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CountVictims(ctx context.Context, createdBy *uint, since *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&victimdomain.Victim{})
	if createdBy != nil {
		query = query.Where("created_by_id = ?", *createdBy)
	}
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *PostgresRepository) CountFamiliesWithVictimsBy(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&victimdomain.Victim{}).
		Where("created_by_id = ? AND family_id IS NOT NULL", userID).
		Distinct("family_id").
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) CountRequests(ctx context.Context, createdBy *uint, status *aiddomain.Status) (int64, error) {
	query := r.db.WithContext(ctx).Model(&aiddomain.Request{})
	if createdBy != nil {
		query = query.Where("created_by_id = ?", *createdBy)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *PostgresRepository) CountFamiliesWithRequestsBy(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&aiddomain.Request{}).
		Where("created_by_id = ?", userID).
		Distinct("family_id").
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) CountFamiliesAided(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&aiddomain.Request{}).
		Where("status = ?", aiddomain.StatusValidated).
		Distinct("family_id").
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) RecentActions(ctx context.Context, actorID *uint, limit int) ([]auditdomain.Entry, error) {
	query := r.db.WithContext(ctx).Model(&auditdomain.Entry{})
	if actorID != nil {
		query = query.Where("actor_id = ?", *actorID)
	}
	var entries []auditdomain.Entry
	err := query.Order("created_at desc, id desc").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *PostgresRepository) RecentRequests(ctx context.Context, createdBy uint, limit int) ([]aiddomain.Request, error) {
	var requests []aiddomain.Request
	err := r.db.WithContext(ctx).
		Preload("Family").
		Where("created_by_id = ?", createdBy).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}
