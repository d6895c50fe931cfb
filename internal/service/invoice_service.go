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

// InvoiceService manages invoices issued against supply contracts.
type InvoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	contractRepo repository.ContractRepository
	appRepo      repository.ApplicationRepository
	dispatcher   *notifications.Dispatcher
}

// NewInvoiceService wires an InvoiceService.
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	contractRepo repository.ContractRepository,
	appRepo repository.ApplicationRepository,
	dispatcher *notifications.Dispatcher,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		contractRepo: contractRepo,
		appRepo:      appRepo,
		dispatcher:   dispatcher,
	}
}

// IssueInvoiceInput is the staff invoicing payload.
type IssueInvoiceInput struct {
	ContractID uint
	Amount     decimal.Decimal
	DueDate    time.Time
}

// Issue creates an invoice against an active or completed contract.
func (s *InvoiceService) Issue(ctx context.Context, in IssueInvoiceInput) (*models.Invoice, error) {
	contract, err := s.contractRepo.GetByID(ctx, in.ContractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != models.ContractActive && contract.Status != models.ContractCompleted {
		return nil, models.NewValidationError("Invoices can only be issued against active or completed contracts")
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, models.NewValidationError("Invoice amount must be positive")
	}

	invoice := &models.Invoice{
		InvoiceNumber: generateDocumentNumber("GCX-INV"),
		ContractID:    contract.ID,
		Amount:        in.Amount.Round(2),
		Status:        models.InvoiceIssued,
		IssuedAt:      time.Now(),
		DueDate:       in.DueDate,
	}
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if app, appErr := s.appRepo.GetByID(ctx, contract.ApplicationID); appErr == nil {
			s.dispatcher.Enqueue(notifications.Event{
				Type:  notifications.TypeInvoiceIssued,
				Email: app.Email,
				Phone: app.Phone,
				Data: map[string]interface{}{
					"supplierName":   app.ContactPerson,
					"invoiceNumber":  invoice.InvoiceNumber,
					"amount":         invoice.Amount.StringFixed(2),
					"contractNumber": contract.ContractNumber,
				},
			})
		}
	}

	return invoice, nil
}

// GetByID loads one invoice.
func (s *InvoiceService) GetByID(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

// ListForContract returns all invoices of a contract.
func (s *InvoiceService) ListForContract(ctx context.Context, contractID uint) ([]models.Invoice, error) {
	return s.invoiceRepo.ListByContract(ctx, contractID)
}

// Pay marks an issued invoice as paid.
func (s *InvoiceService) Pay(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceIssued {
		return nil, models.NewValidationError(fmt.Sprintf("Invoice in status %s cannot be paid", invoice.Status))
	}
	now := time.Now()
	invoice.Status = models.InvoicePaid
	invoice.PaidAt = &now
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// Cancel voids an issued invoice.
func (s *InvoiceService) Cancel(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceIssued {
		return nil, models.NewValidationError(fmt.Sprintf("Invoice in status %s cannot be cancelled", invoice.Status))
	}
	invoice.Status = models.InvoiceCancelled
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}
