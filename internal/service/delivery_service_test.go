package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"gcxportal/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliveryRepoStub struct {
	createFn               func(context.Context, *models.DeliveryTracking) error
	updateFn               func(context.Context, *models.DeliveryTracking) error
	getByIDFn              func(context.Context, uint) (*models.DeliveryTracking, error)
	listByContractFn       func(context.Context, uint) ([]models.DeliveryTracking, error)
	createVoucherFn        func(context.Context, *models.StoreReceiptVoucher) error
	getVoucherByDeliveryFn func(context.Context, uint) (*models.StoreReceiptVoucher, error)
}

func (s *deliveryRepoStub) Create(ctx context.Context, delivery *models.DeliveryTracking) error {
	return s.createFn(ctx, delivery)
}
func (s *deliveryRepoStub) Update(ctx context.Context, delivery *models.DeliveryTracking) error {
	return s.updateFn(ctx, delivery)
}
func (s *deliveryRepoStub) GetByID(ctx context.Context, id uint) (*models.DeliveryTracking, error) {
	return s.getByIDFn(ctx, id)
}
func (s *deliveryRepoStub) ListByContract(ctx context.Context, contractID uint) ([]models.DeliveryTracking, error) {
	return s.listByContractFn(ctx, contractID)
}
func (s *deliveryRepoStub) CreateVoucher(ctx context.Context, voucher *models.StoreReceiptVoucher) error {
	return s.createVoucherFn(ctx, voucher)
}
func (s *deliveryRepoStub) GetVoucherByDelivery(ctx context.Context, deliveryID uint) (*models.StoreReceiptVoucher, error) {
	return s.getVoucherByDeliveryFn(ctx, deliveryID)
}

func noopDeliveryRepo() *deliveryRepoStub {
	return &deliveryRepoStub{
		createFn: func(context.Context, *models.DeliveryTracking) error { return nil },
		updateFn: func(context.Context, *models.DeliveryTracking) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.DeliveryTracking, error) {
			return &models.DeliveryTracking{}, nil
		},
		listByContractFn: func(context.Context, uint) ([]models.DeliveryTracking, error) { return nil, nil },
		createVoucherFn:  func(context.Context, *models.StoreReceiptVoucher) error { return nil },
		getVoucherByDeliveryFn: func(context.Context, uint) (*models.StoreReceiptVoucher, error) {
			return nil, nil
		},
	}
}

func newDeliveryService(deliveryRepo *deliveryRepoStub, contractRepo *contractRepoStub) *DeliveryService {
	return NewDeliveryService(deliveryRepo, contractRepo, noopAppRepo(), nil)
}

func activeContractRepo() *contractRepoStub {
	repo := noopContractRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.SupplierContract, error) {
		return &models.SupplierContract{ID: 2, Status: models.ContractActive}, nil
	}
	return repo
}

func TestDeliveryService_Schedule(t *testing.T) {
	t.Parallel()

	t.Run("rejects draft contracts", func(t *testing.T) {
		t.Parallel()
		contractRepo := noopContractRepo()
		contractRepo.getByIDFn = func(context.Context, uint) (*models.SupplierContract, error) {
			return &models.SupplierContract{ID: 2, Status: models.ContractDraft}, nil
		}
		svc := newDeliveryService(noopDeliveryRepo(), contractRepo)
		_, err := svc.Schedule(context.Background(), ScheduleDeliveryInput{
			ContractID: 2, SchoolID: 1, Quantity: decimal.NewFromInt(10), ScheduledFor: time.Now(),
		})
		assertValidationError(t, err)
	})

	t.Run("creates a scheduled delivery with a number", func(t *testing.T) {
		t.Parallel()
		svc := newDeliveryService(noopDeliveryRepo(), activeContractRepo())
		delivery, err := svc.Schedule(context.Background(), ScheduleDeliveryInput{
			ContractID: 2, SchoolID: 1, Quantity: decimal.NewFromInt(10), ScheduledFor: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, models.DeliveryScheduled, delivery.Status)
		assert.True(t, strings.HasPrefix(delivery.DeliveryNumber, "GCX-DLV-"))
	})
}

func TestDeliveryService_Confirm(t *testing.T) {
	t.Parallel()

	deliveredFn := func(context.Context, uint) (*models.DeliveryTracking, error) {
		return &models.DeliveryTracking{ID: 3, ContractID: 2, Status: models.DeliveryDelivered}, nil
	}

	t.Run("only delivered deliveries can be confirmed", func(t *testing.T) {
		t.Parallel()
		deliveryRepo := noopDeliveryRepo()
		deliveryRepo.getByIDFn = func(context.Context, uint) (*models.DeliveryTracking, error) {
			return &models.DeliveryTracking{ID: 3, Status: models.DeliveryInTransit}, nil
		}
		svc := newDeliveryService(deliveryRepo, activeContractRepo())
		_, _, err := svc.Confirm(context.Background(), 3, "Storekeeper")
		assertValidationError(t, err)
	})

	t.Run("issues exactly one voucher", func(t *testing.T) {
		t.Parallel()
		deliveryRepo := noopDeliveryRepo()
		deliveryRepo.getByIDFn = deliveredFn
		var issued *models.StoreReceiptVoucher
		deliveryRepo.createVoucherFn = func(_ context.Context, v *models.StoreReceiptVoucher) error {
			issued = v
			return nil
		}
		svc := newDeliveryService(deliveryRepo, activeContractRepo())

		delivery, voucher, err := svc.Confirm(context.Background(), 3, "Storekeeper")
		require.NoError(t, err)
		require.NotNil(t, issued)
		assert.Equal(t, voucher, issued)
		assert.Equal(t, uint(3), voucher.DeliveryID)
		assert.Equal(t, "Storekeeper", voucher.ReceivedBy)
		assert.True(t, strings.HasPrefix(voucher.VoucherNumber, "GCX-SRV-"))
		assert.Equal(t, models.DeliveryConfirmed, delivery.Status)
		assert.NotNil(t, delivery.ConfirmedAt)
	})

	t.Run("second confirmation is rejected", func(t *testing.T) {
		t.Parallel()
		deliveryRepo := noopDeliveryRepo()
		deliveryRepo.getByIDFn = deliveredFn
		deliveryRepo.getVoucherByDeliveryFn = func(context.Context, uint) (*models.StoreReceiptVoucher, error) {
			return &models.StoreReceiptVoucher{ID: 1, DeliveryID: 3}, nil
		}
		deliveryRepo.createVoucherFn = func(context.Context, *models.StoreReceiptVoucher) error {
			t.Fatal("a second voucher must never be created")
			return nil
		}
		svc := newDeliveryService(deliveryRepo, activeContractRepo())

		_, _, err := svc.Confirm(context.Background(), 3, "Storekeeper")
		assertValidationError(t, err)
	})
}

func TestDeliveryService_StatusProgression(t *testing.T) {
	t.Parallel()

	t.Run("in transit requires scheduled", func(t *testing.T) {
		t.Parallel()
		deliveryRepo := noopDeliveryRepo()
		deliveryRepo.getByIDFn = func(context.Context, uint) (*models.DeliveryTracking, error) {
			return &models.DeliveryTracking{ID: 3, Status: models.DeliveryConfirmed}, nil
		}
		svc := newDeliveryService(deliveryRepo, activeContractRepo())
		_, err := svc.MarkInTransit(context.Background(), 3)
		assertValidationError(t, err)
	})

	t.Run("delivered stamps the arrival time", func(t *testing.T) {
		t.Parallel()
		deliveryRepo := noopDeliveryRepo()
		deliveryRepo.getByIDFn = func(context.Context, uint) (*models.DeliveryTracking, error) {
			return &models.DeliveryTracking{ID: 3, Status: models.DeliveryInTransit}, nil
		}
		svc := newDeliveryService(deliveryRepo, activeContractRepo())
		delivery, err := svc.MarkDelivered(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, models.DeliveryDelivered, delivery.Status)
		assert.NotNil(t, delivery.DeliveredAt)
	})
}
