package repository

import (
	"context"
	"errors"

	"gcxportal/internal/models"

	"gorm.io/gorm"
)

// InvoiceRepository defines persistence for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uint) (*models.Invoice, error)
	ListByContract(ctx context.Context, contractID uint) ([]models.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository returns a new InvoiceRepository implementation.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("An invoice with this number already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	if err := r.db.WithContext(ctx).Save(invoice).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).Preload("Contract").First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Invoice", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByContract(ctx context.Context, contractID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("issued_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return invoices, nil
}
