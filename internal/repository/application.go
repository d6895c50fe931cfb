package repository

import (
	"context"
	"errors"
	"time"

	"gcxportal/internal/cache"
	"gcxportal/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository defines persistence operations for supplier
// applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.SupplierApplication) error
	Update(ctx context.Context, app *models.SupplierApplication) error
	GetByID(ctx context.Context, id uint) (*models.SupplierApplication, error)
	GetByTrackingCode(ctx context.Context, code string) (*models.SupplierApplication, error)
	GetByCompletionToken(ctx context.Context, token string) (*models.SupplierApplication, error)
	GetByUserID(ctx context.Context, userID uint) (*models.SupplierApplication, error)
	List(ctx context.Context, status models.ApplicationStatus, limit, offset int) ([]models.SupplierApplication, int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository returns a new ApplicationRepository implementation.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.SupplierApplication) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("An application with this tracking code already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) Update(ctx context.Context, app *models.SupplierApplication) error {
	// Save skips the m2m associations; they are set once at submission.
	if err := r.db.WithContext(ctx).Omit("Commodities", "Schools").Save(app).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.KeyTracking(app.TrackingCode))
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.SupplierApplication, error) {
	var app models.SupplierApplication
	err := r.db.WithContext(ctx).
		Preload("Region").
		Preload("Commodities").
		Preload("Schools").
		Preload("TeamMembers").
		Preload("NextOfKin").
		Preload("BankAccounts").
		First(&app, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

// trackingEntry is the cached shape for public tracking lookups. The model
// hides MissingDocuments from API JSON, so caching the model itself would
// drop the missing-document list on every cache hit.
type trackingEntry struct {
	ID               uint                     `json:"id"`
	TrackingCode     string                   `json:"tracking_code"`
	BusinessName     string                   `json:"business_name"`
	Status           models.ApplicationStatus `json:"status"`
	RejectionReason  string                   `json:"rejection_reason"`
	MissingDocuments string                   `json:"missing_documents"`
	Deadline         *time.Time               `json:"deadline"`
	SubmittedAt      time.Time                `json:"submitted_at"`
}

func (r *applicationRepository) GetByTrackingCode(ctx context.Context, code string) (*models.SupplierApplication, error) {
	var entry trackingEntry
	err := cache.Aside(ctx, cache.KeyTracking(code), &entry, cache.TTLTrackingLookup, func() error {
		var app models.SupplierApplication
		if err := r.db.WithContext(ctx).Where("tracking_code = ?", code).First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Application", code)
			}
			return models.NewInternalError(err)
		}
		entry = trackingEntry{
			ID:               app.ID,
			TrackingCode:     app.TrackingCode,
			BusinessName:     app.BusinessName,
			Status:           app.Status,
			RejectionReason:  app.RejectionReason,
			MissingDocuments: app.MissingDocuments,
			Deadline:         app.DocumentCompletionDeadline,
			SubmittedAt:      app.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.SupplierApplication{
		ID:                         entry.ID,
		TrackingCode:               entry.TrackingCode,
		BusinessName:               entry.BusinessName,
		Status:                     entry.Status,
		RejectionReason:            entry.RejectionReason,
		MissingDocuments:           entry.MissingDocuments,
		DocumentCompletionDeadline: entry.Deadline,
		CreatedAt:                  entry.SubmittedAt,
	}, nil
}

func (r *applicationRepository) GetByCompletionToken(ctx context.Context, token string) (*models.SupplierApplication, error) {
	var app models.SupplierApplication
	err := r.db.WithContext(ctx).
		Preload("Commodities").
		Where("completion_token = ?", token).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", token)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) GetByUserID(ctx context.Context, userID uint) (*models.SupplierApplication, error) {
	var app models.SupplierApplication
	err := r.db.WithContext(ctx).
		Preload("Commodities").
		Where("user_id = ?", userID).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, status models.ApplicationStatus, limit, offset int) ([]models.SupplierApplication, int64, error) {
	var apps []models.SupplierApplication
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SupplierApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	err := query.
		Preload("Region").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return apps, total, nil
}
