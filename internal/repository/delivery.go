package repository

import (
	"context"
	"errors"

	"gcxportal/internal/models"

	"gorm.io/gorm"
)

// DeliveryRepository defines persistence for deliveries and store receipt
// vouchers.
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *models.DeliveryTracking) error
	Update(ctx context.Context, delivery *models.DeliveryTracking) error
	GetByID(ctx context.Context, id uint) (*models.DeliveryTracking, error)
	ListByContract(ctx context.Context, contractID uint) ([]models.DeliveryTracking, error)
	CreateVoucher(ctx context.Context, voucher *models.StoreReceiptVoucher) error
	GetVoucherByDelivery(ctx context.Context, deliveryID uint) (*models.StoreReceiptVoucher, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository returns a new DeliveryRepository implementation.
func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *models.DeliveryTracking) error {
	if err := r.db.WithContext(ctx).Create(delivery).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A delivery with this number already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *deliveryRepository) Update(ctx context.Context, delivery *models.DeliveryTracking) error {
	if err := r.db.WithContext(ctx).Save(delivery).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *deliveryRepository) GetByID(ctx context.Context, id uint) (*models.DeliveryTracking, error) {
	var delivery models.DeliveryTracking
	err := r.db.WithContext(ctx).
		Preload("Contract").
		Preload("School").
		First(&delivery, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Delivery", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &delivery, nil
}

func (r *deliveryRepository) ListByContract(ctx context.Context, contractID uint) ([]models.DeliveryTracking, error) {
	var deliveries []models.DeliveryTracking
	err := r.db.WithContext(ctx).
		Preload("School").
		Where("contract_id = ?", contractID).
		Order("scheduled_for").
		Find(&deliveries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return deliveries, nil
}

func (r *deliveryRepository) CreateVoucher(ctx context.Context, voucher *models.StoreReceiptVoucher) error {
	if err := r.db.WithContext(ctx).Create(voucher).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("A voucher has already been issued for this delivery")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *deliveryRepository) GetVoucherByDelivery(ctx context.Context, deliveryID uint) (*models.StoreReceiptVoucher, error) {
	var voucher models.StoreReceiptVoucher
	if err := r.db.WithContext(ctx).Where("delivery_id = ?", deliveryID).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &voucher, nil
}
