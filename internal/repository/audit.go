package repository

import (
	"context"

	"gcxportal/internal/models"

	"gorm.io/gorm"
)

// AuditRepository defines persistence for application audit logs.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByApplication(ctx context.Context, applicationID uint) ([]models.AuditLog, error)
	List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository returns a new AuditRepository implementation.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *auditRepository) ListByApplication(ctx context.Context, applicationID uint) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *auditRepository) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return entries, total, nil
}
