package service

import (
	"context"
	"fmt"
	"time"

	"gcxportal/internal/models"
	"gcxportal/internal/notifications"
	"gcxportal/internal/repository"

	"github.com/shopspring/decimal"
)

// DeliveryService manages delivery scheduling, confirmation and store
// receipt voucher issuance.
type DeliveryService struct {
	deliveryRepo repository.DeliveryRepository
	contractRepo repository.ContractRepository
	appRepo      repository.ApplicationRepository
	dispatcher   *notifications.Dispatcher
}

// NewDeliveryService wires a DeliveryService.
func NewDeliveryService(
	deliveryRepo repository.DeliveryRepository,
	contractRepo repository.ContractRepository,
	appRepo repository.ApplicationRepository,
	dispatcher *notifications.Dispatcher,
) *DeliveryService {
	return &DeliveryService{
		deliveryRepo: deliveryRepo,
		contractRepo: contractRepo,
		appRepo:      appRepo,
		dispatcher:   dispatcher,
	}
}

// ScheduleDeliveryInput is the staff delivery scheduling payload.
type ScheduleDeliveryInput struct {
	ContractID   uint
	SchoolID     uint
	Quantity     decimal.Decimal
	ScheduledFor time.Time
}

// Schedule creates a delivery against an active contract.
func (s *DeliveryService) Schedule(ctx context.Context, in ScheduleDeliveryInput) (*models.DeliveryTracking, error) {
	contract, err := s.contractRepo.GetByID(ctx, in.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != models.ContractActive {
		return nil, models.NewValidationError("Deliveries can only be scheduled against active contracts")
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, models.NewValidationError("Delivery quantity must be positive")
	}

	delivery := &models.DeliveryTracking{
		DeliveryNumber: generateDocumentNumber("GCX-DLV"),
		ContractID:     contract.ID,
		SchoolID:       in.SchoolID,
		Quantity:       in.Quantity,
		Status:         models.DeliveryScheduled,
		ScheduledFor:   in.ScheduledFor,
	}
	if err := s.deliveryRepo.Create(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// GetByID loads a delivery with its contract and destination.
func (s *DeliveryService) GetByID(ctx context.Context, id uint) (*models.DeliveryTracking, error) {
	return s.deliveryRepo.GetByID(ctx, id)
}

// ListForContract returns all deliveries of a contract.
func (s *DeliveryService) ListForContract(ctx context.Context, contractID uint) ([]models.DeliveryTracking, error) {
	return s.deliveryRepo.ListByContract(ctx, contractID)
}

// MarkInTransit moves a scheduled delivery to in transit.
func (s *DeliveryService) MarkInTransit(ctx context.Context, id uint) (*models.DeliveryTracking, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status != models.DeliveryScheduled {
		return nil, models.NewValidationError(fmt.Sprintf("Delivery in status %s cannot be marked in transit", delivery.Status))
	}
	delivery.Status = models.DeliveryInTransit
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// MarkDelivered records arrival at the school.
func (s *DeliveryService) MarkDelivered(ctx context.Context, id uint) (*models.DeliveryTracking, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if delivery.Status != models.DeliveryInTransit && delivery.Status != models.DeliveryScheduled {
		return nil, models.NewValidationError(fmt.Sprintf("Delivery in status %s cannot be marked delivered", delivery.Status))
	}
	now := time.Now()
	delivery.Status = models.DeliveryDelivered
	delivery.DeliveredAt = &now
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// Confirm finalizes a delivered delivery and issues exactly one store
// receipt voucher. Confirming twice is a validation error; the voucher's
// unique delivery index backs this up at the database level.
func (s *DeliveryService) Confirm(ctx context.Context, id uint, receivedBy string) (*models.DeliveryTracking, *models.StoreReceiptVoucher, error) {
	delivery, err := s.deliveryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if delivery.Status != models.DeliveryDelivered {
		return nil, nil, models.NewValidationError(fmt.Sprintf("Delivery in status %s cannot be confirmed", delivery.Status))
	}

	existing, err := s.deliveryRepo.GetVoucherByDelivery(ctx, delivery.ID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, models.NewValidationError("A voucher has already been issued for this delivery")
	}

	now := time.Now()
	voucher := &models.StoreReceiptVoucher{
		VoucherNumber: generateDocumentNumber("GCX-SRV"),
		DeliveryID:    delivery.ID,
		ReceivedBy:    receivedBy,
		IssuedAt:      now,
	}
	if err := s.deliveryRepo.CreateVoucher(ctx, voucher); err != nil {
		return nil, nil, err
	}

	delivery.Status = models.DeliveryConfirmed
	delivery.ConfirmedAt = &now
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, nil, err
	}

	if s.dispatcher != nil {
		if app, appErr := s.supplierForDelivery(ctx, delivery); appErr == nil {
			s.dispatcher.Enqueue(notifications.Event{
				Type:  notifications.TypeDeliveryConfirmed,
				Email: app.Email,
				Phone: app.Phone,
				Data: map[string]interface{}{
					"supplierName":  app.ContactPerson,
					"deliveryCode":  delivery.DeliveryNumber,
					"voucherNumber": voucher.VoucherNumber,
				},
			})
		}
	}

	return delivery, voucher, nil
}

func (s *DeliveryService) supplierForDelivery(ctx context.Context, delivery *models.DeliveryTracking) (*models.SupplierApplication, error) {
	contract, err := s.contractRepo.GetByID(ctx, delivery.ContractID)
	if err != nil {
		return nil, err
	}
	return s.appRepo.GetByID(ctx, contract.ApplicationID)
}
