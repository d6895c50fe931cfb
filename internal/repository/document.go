package repository

import (
	"context"
	"errors"

	"gcxportal/internal/cache"
	"gcxportal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRepository defines persistence for requirements, uploads and
// outstanding document requests.
type DocumentRepository interface {
	ListActiveRequirements(ctx context.Context) ([]models.DocumentRequirement, error)
	GetRequirementByID(ctx context.Context, id uint) (*models.DocumentRequirement, error)
	GetRequirementByCode(ctx context.Context, code string) (*models.DocumentRequirement, error)
	CreateRequirement(ctx context.Context, req *models.DocumentRequirement) error

	UpsertUpload(ctx context.Context, upload *models.DocumentUpload) error
	GetUploadByID(ctx context.Context, id uint) (*models.DocumentUpload, error)
	ListUploadsByApplication(ctx context.Context, applicationID uint) ([]models.DocumentUpload, error)
	UpdateUpload(ctx context.Context, upload *models.DocumentUpload) error

	CreateOutstandingRequest(ctx context.Context, req *models.OutstandingDocumentRequest) error
	ListUnresolvedRequests(ctx context.Context, applicationID uint) ([]models.OutstandingDocumentRequest, error)
	UpdateOutstandingRequest(ctx context.Context, req *models.OutstandingDocumentRequest) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository returns a new DocumentRepository implementation.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) ListActiveRequirements(ctx context.Context) ([]models.DocumentRequirement, error) {
	var reqs []models.DocumentRequirement
	err := cache.Aside(ctx, cache.KeyRequirements, &reqs, cache.TTLRequirements, func() error {
		if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("code").Find(&reqs).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *documentRepository) GetRequirementByID(ctx context.Context, id uint) (*models.DocumentRequirement, error) {
	var req models.DocumentRequirement
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Document requirement", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *documentRepository) GetRequirementByCode(ctx context.Context, code string) (*models.DocumentRequirement, error) {
	var req models.DocumentRequirement
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Document requirement", code)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *documentRepository) CreateRequirement(ctx context.Context, req *models.DocumentRequirement) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A requirement with this code already exists")
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.KeyRequirements)
	return nil
}

// UpsertUpload enforces one upload per (application, requirement): a
// re-upload replaces the previous file metadata and resets verification.
func (r *documentRepository) UpsertUpload(ctx context.Context, upload *models.DocumentUpload) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "application_id"}, {Name: "requirement_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"file_name", "file_path", "file_size", "content_type",
			"verified", "verified_by_user_id", "verified_at", "updated_at",
		}),
	}).Create(upload).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *documentRepository) GetUploadByID(ctx context.Context, id uint) (*models.DocumentUpload, error) {
	var upload models.DocumentUpload
	if err := r.db.WithContext(ctx).Preload("Requirement").First(&upload, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Document upload", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &upload, nil
}

func (r *documentRepository) ListUploadsByApplication(ctx context.Context, applicationID uint) ([]models.DocumentUpload, error) {
	var uploads []models.DocumentUpload
	err := r.db.WithContext(ctx).
		Preload("Requirement").
		Where("application_id = ?", applicationID).
		Find(&uploads).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return uploads, nil
}

func (r *documentRepository) UpdateUpload(ctx context.Context, upload *models.DocumentUpload) error {
	if err := r.db.WithContext(ctx).Save(upload).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *documentRepository) CreateOutstandingRequest(ctx context.Context, req *models.OutstandingDocumentRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *documentRepository) ListUnresolvedRequests(ctx context.Context, applicationID uint) ([]models.OutstandingDocumentRequest, error) {
	var reqs []models.OutstandingDocumentRequest
	err := r.db.WithContext(ctx).
		Preload("Requirements").
		Where("application_id = ? AND is_resolved = ?", applicationID, false).
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *documentRepository) UpdateOutstandingRequest(ctx context.Context, req *models.OutstandingDocumentRequest) error {
	if err := r.db.WithContext(ctx).Omit("Requirements").Save(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
