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

type invoiceRepoStub struct {
	createFn         func(context.Context, *models.Invoice) error
	updateFn         func(context.Context, *models.Invoice) error
	getByIDFn        func(context.Context, uint) (*models.Invoice, error)
	listByContractFn func(context.Context, uint) ([]models.Invoice, error)
}

func (s *invoiceRepoStub) Create(ctx context.Context, invoice *models.Invoice) error {
	return s.createFn(ctx, invoice)
}
func (s *invoiceRepoStub) Update(ctx context.Context, invoice *models.Invoice) error {
	return s.updateFn(ctx, invoice)
}
func (s *invoiceRepoStub) GetByID(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.getByIDFn(ctx, id)
}
func (s *invoiceRepoStub) ListByContract(ctx context.Context, contractID uint) ([]models.Invoice, error) {
	return s.listByContractFn(ctx, contractID)
}

func noopInvoiceRepo() *invoiceRepoStub {
	return &invoiceRepoStub{
		createFn:         func(context.Context, *models.Invoice) error { return nil },
		updateFn:         func(context.Context, *models.Invoice) error { return nil },
		getByIDFn:        func(context.Context, uint) (*models.Invoice, error) { return &models.Invoice{}, nil },
		listByContractFn: func(context.Context, uint) ([]models.Invoice, error) { return nil, nil },
	}
}

func newInvoiceService(invoiceRepo *invoiceRepoStub, contractRepo *contractRepoStub) *InvoiceService {
	return NewInvoiceService(invoiceRepo, contractRepo, noopAppRepo(), nil)
}

func TestInvoiceService_Issue(t *testing.T) {
	t.Parallel()

	dueDate := time.Now().AddDate(0, 1, 0)

	t.Run("rejects draft contracts", func(t *testing.T) {
		t.Parallel()
		contractRepo := noopContractRepo()
		contractRepo.getByIDFn = func(context.Context, uint) (*models.SupplierContract, error) {
			return &models.SupplierContract{ID: 2, Status: models.ContractDraft}, nil
		}
		svc := newInvoiceService(noopInvoiceRepo(), contractRepo)
		_, err := svc.Issue(context.Background(), IssueInvoiceInput{
			ContractID: 2, Amount: decimal.NewFromInt(100), DueDate: dueDate,
		})
		assertValidationError(t, err)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		t.Parallel()
		svc := newInvoiceService(noopInvoiceRepo(), activeContractRepo())
		_, err := svc.Issue(context.Background(), IssueInvoiceInput{
			ContractID: 2, Amount: decimal.Zero, DueDate: dueDate,
		})
		assertValidationError(t, err)
	})

	t.Run("completed contracts can still be invoiced", func(t *testing.T) {
		t.Parallel()
		contractRepo := noopContractRepo()
		contractRepo.getByIDFn = func(context.Context, uint) (*models.SupplierContract, error) {
			return &models.SupplierContract{ID: 2, Status: models.ContractCompleted}, nil
		}
		svc := newInvoiceService(noopInvoiceRepo(), contractRepo)
		invoice, err := svc.Issue(context.Background(), IssueInvoiceInput{
			ContractID: 2, Amount: decimal.RequireFromString("99.999"), DueDate: dueDate,
		})
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceIssued, invoice.Status)
		assert.True(t, strings.HasPrefix(invoice.InvoiceNumber, "GCX-INV-"))
		assert.True(t, invoice.Amount.Equal(decimal.RequireFromString("100")), "amount rounds to two places, got %s", invoice.Amount)
	})
}

func TestInvoiceService_PayAndCancel(t *testing.T) {
	t.Parallel()

	issuedFn := func(context.Context, uint) (*models.Invoice, error) {
		return &models.Invoice{ID: 4, Status: models.InvoiceIssued}, nil
	}

	t.Run("pay stamps the payment time", func(t *testing.T) {
		t.Parallel()
		invoiceRepo := noopInvoiceRepo()
		invoiceRepo.getByIDFn = issuedFn
		svc := newInvoiceService(invoiceRepo, activeContractRepo())
		invoice, err := svc.Pay(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, models.InvoicePaid, invoice.Status)
		assert.NotNil(t, invoice.PaidAt)
	})

	t.Run("paid invoices cannot be paid again", func(t *testing.T) {
		t.Parallel()
		invoiceRepo := noopInvoiceRepo()
		invoiceRepo.getByIDFn = func(context.Context, uint) (*models.Invoice, error) {
			return &models.Invoice{ID: 4, Status: models.InvoicePaid}, nil
		}
		svc := newInvoiceService(invoiceRepo, activeContractRepo())
		_, err := svc.Pay(context.Background(), 4)
		assertValidationError(t, err)
	})

	t.Run("cancel voids an issued invoice", func(t *testing.T) {
		t.Parallel()
		invoiceRepo := noopInvoiceRepo()
		invoiceRepo.getByIDFn = issuedFn
		svc := newInvoiceService(invoiceRepo, activeContractRepo())
		invoice, err := svc.Cancel(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceCancelled, invoice.Status)
	})

	t.Run("cancelled invoices cannot be paid", func(t *testing.T) {
		t.Parallel()
		invoiceRepo := noopInvoiceRepo()
		invoiceRepo.getByIDFn = func(context.Context, uint) (*models.Invoice, error) {
			return &models.Invoice{ID: 4, Status: models.InvoiceCancelled}, nil
		}
		svc := newInvoiceService(invoiceRepo, activeContractRepo())
		_, err := svc.Pay(context.Background(), 4)
		assertValidationError(t, err)
	})
}
