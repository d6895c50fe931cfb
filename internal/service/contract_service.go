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

// ContractService manages the post-approval contract lifecycle.
type ContractService struct {
	contractRepo repository.ContractRepository
	appRepo      repository.ApplicationRepository
	refRepo      repository.ReferenceRepository
	dispatcher   *notifications.Dispatcher
}

// NewContractService wires a ContractService.
func NewContractService(
	contractRepo repository.ContractRepository,
	appRepo repository.ApplicationRepository,
	refRepo repository.ReferenceRepository,
	dispatcher *notifications.Dispatcher,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		appRepo:      appRepo,
		refRepo:      refRepo,
		dispatcher:   dispatcher,
	}
}

// CreateContractInput is the staff contract creation payload.
type CreateContractInput struct {
	ApplicationID uint
	CommodityID   uint
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
}

// Create issues a draft contract for an approved application. The total
// value is always derived from quantity and unit price, never taken from the
// caller.
func (s *ContractService) Create(ctx context.Context, in CreateContractInput) (*models.SupplierContract, error) {
	app, err := s.appRepo.GetByID(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusApproved {
		return nil, models.NewValidationError("Contracts can only be created for approved applications")
	}

	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, models.NewValidationError("Contract quantity must be positive")
	}
	if in.UnitPrice.LessThanOrEqual(decimal.Zero) {
		return nil, models.NewValidationError("Contract unit price must be positive")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, models.NewValidationError("Contract end date must be after the start date")
	}

	commodities, err := s.refRepo.GetCommoditiesByIDs(ctx, []uint{in.CommodityID})
	if err != nil {
		return nil, err
	}
	if len(commodities) == 0 {
		return nil, models.NewNotFoundError("Commodity", in.CommodityID)
	}

	contract := &models.SupplierContract{
		ContractNumber: generateDocumentNumber("GCX-CTR"),
		ApplicationID:  app.ID,
		CommodityID:    in.CommodityID,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		TotalValue:     in.Quantity.Mul(in.UnitPrice).Round(2),
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Status:         models.ContractDraft,
	}
	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		s.dispatcher.Enqueue(notifications.Event{
			Type:  notifications.TypeContractCreated,
			Email: app.Email,
			Phone: app.Phone,
			Data: map[string]interface{}{
				"supplierName":   app.ContactPerson,
				"contractNumber": contract.ContractNumber,
				"commodity":      commodities[0].Name,
			},
		})
	}

	return contract, nil
}

// GetByID loads one contract with its attachments and signings.
func (s *ContractService) GetByID(ctx context.Context, id uint) (*models.SupplierContract, error) {
	return s.contractRepo.GetByID(ctx, id)
}

// List returns contracts for the staff dashboard.
func (s *ContractService) List(ctx context.Context, status models.ContractStatus, limit, offset int) ([]models.SupplierContract, int64, error) {
	return s.contractRepo.List(ctx, status, limit, offset)
}

// ListForApplication returns a supplier's contracts.
func (s *ContractService) ListForApplication(ctx context.Context, applicationID uint) ([]models.SupplierContract, error) {
	return s.contractRepo.ListByApplication(ctx, applicationID)
}

// Sign appends a signing record to a draft contract. The contract activates
// once both the supplier and the exchange have signed; a second signature
// from the same role does not activate it.
func (s *ContractService) Sign(ctx context.Context, contractID uint, signedBy, signerRole string) (*models.SupplierContract, error) {
	if signedBy == "" {
		return nil, models.NewValidationError("Signer name is required")
	}

	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Status != models.ContractDraft {
		return nil, models.NewValidationError(fmt.Sprintf("Contract in status %s cannot be signed", contract.Status))
	}

	signing := &models.ContractSigning{
		ContractID: contract.ID,
		SignedBy:   signedBy,
		SignerRole: signerRole,
		SignedAt:   time.Now(),
	}
	if err := s.contractRepo.AddSigning(ctx, signing); err != nil {
		return nil, err
	}

	roles := map[string]bool{signerRole: true}
	for _, prior := range contract.Signings {
		roles[prior.SignerRole] = true
	}
	if len(roles) >= 2 {
		contract.Status = models.ContractActive
		if err := s.contractRepo.Update(ctx, contract); err != nil {
			return nil, err
		}
	}

	return s.contractRepo.GetByID(ctx, contractID)
}

// AttachDocument records a file attached to a contract.
func (s *ContractService) AttachDocument(ctx context.Context, contractID uint, fileName, filePath string, fileSize int64) (*models.ContractDocument, error) {
	if _, err := s.contractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}
	doc := &models.ContractDocument{
		ContractID: contractID,
		FileName:   fileName,
		FilePath:   filePath,
		FileSize:   fileSize,
	}
	if err := s.contractRepo.AddDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
