package repository

import (
	"context"
	"errors"

	"gcxportal/internal/models"

	"gorm.io/gorm"
)

// ContractRepository defines persistence for supply contracts and their
// attachments.
type ContractRepository interface {
	Create(ctx context.Context, contract *models.SupplierContract) error
	Update(ctx context.Context, contract *models.SupplierContract) error
	GetByID(ctx context.Context, id uint) (*models.SupplierContract, error)
	ListByApplication(ctx context.Context, applicationID uint) ([]models.SupplierContract, error)
	List(ctx context.Context, status models.ContractStatus, limit, offset int) ([]models.SupplierContract, int64, error)
	AddSigning(ctx context.Context, signing *models.ContractSigning) error
	AddDocument(ctx context.Context, doc *models.ContractDocument) error
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository returns a new ContractRepository implementation.
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, contract *models.SupplierContract) error {
	if err := r.db.WithContext(ctx).Create(contract).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A contract with this number already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *contractRepository) Update(ctx context.Context, contract *models.SupplierContract) error {
	if err := r.db.WithContext(ctx).Omit("Documents", "Signings").Save(contract).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, id uint) (*models.SupplierContract, error) {
	var contract models.SupplierContract
	err := r.db.WithContext(ctx).
		Preload("Commodity").
		Preload("Documents").
		Preload("Signings").
		First(&contract, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Contract", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &contract, nil
}

func (r *contractRepository) ListByApplication(ctx context.Context, applicationID uint) ([]models.SupplierContract, error) {
	var contracts []models.SupplierContract
	err := r.db.WithContext(ctx).
		Preload("Commodity").
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return contracts, nil
}

func (r *contractRepository) List(ctx context.Context, status models.ContractStatus, limit, offset int) ([]models.SupplierContract, int64, error) {
	var contracts []models.SupplierContract
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SupplierContract{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	err := query.
		Preload("Commodity").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&contracts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return contracts, total, nil
}

func (r *contractRepository) AddSigning(ctx context.Context, signing *models.ContractSigning) error {
	if err := r.db.WithContext(ctx).Create(signing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *contractRepository) AddDocument(ctx context.Context, doc *models.ContractDocument) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
