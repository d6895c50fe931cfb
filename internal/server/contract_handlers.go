package server

import (
	"strings"
	"time"

	"gcxportal/internal/models"
	"gcxportal/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CreateContract handles POST /api/staff/contracts
// @Summary Create contract
// @Description Issue a draft contract for an approved application
// @Tags contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{application_id=int,commodity_id=int,quantity=string,unit_price=string,start_date=string,end_date=string} true "Contract payload"
// @Success 201 {object} models.SupplierContract
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/contracts [post]
func (s *Server) CreateContract(c *fiber.Ctx) error {
	var req struct {
		ApplicationID uint            `json:"application_id"`
		CommodityID   uint            `json:"commodity_id"`
		Quantity      decimal.Decimal `json:"quantity"`
		UnitPrice     decimal.Decimal `json:"unit_price"`
		StartDate     time.Time       `json:"start_date"`
		EndDate       time.Time       `json:"end_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	contract, err := s.contractService.Create(c.Context(), service.CreateContractInput{
		ApplicationID: req.ApplicationID,
		CommodityID:   req.CommodityID,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contract)
}

// ListContracts handles GET /api/staff/contracts
// @Summary List contracts
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{contracts=[]models.SupplierContract,total=int}
// @Router /staff/contracts [get]
func (s *Server) ListContracts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	status := models.ContractStatus(c.Query("status"))
	switch status {
	case "", models.ContractDraft, models.ContractActive, models.ContractCompleted, models.ContractTerminated:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown contract status"))
	}

	contracts, total, err := s.contractService.List(c.Context(), status, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"contracts": contracts,
		"total":     total,
		"limit":     page.Limit,
		"offset":    page.Offset,
	})
}

// GetContract handles GET /api/staff/contracts/:id
// @Summary Get contract
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contract ID"
// @Success 200 {object} models.SupplierContract
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/contracts/{id} [get]
func (s *Server) GetContract(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	contract, err := s.contractService.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(contract)
}

// SignContract handles POST /api/staff/contracts/:id/sign
// @Summary Record contract signing
// @Description Record a signing; a draft contract activates once both parties have signed
// @Tags contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contract ID"
// @Param request body object{signed_by=string,signer_role=string} true "Signing details"
// @Success 200 {object} models.SupplierContract
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/contracts/{id}/sign [post]
func (s *Server) SignContract(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		SignedBy   string `json:"signed_by"`
		SignerRole string `json:"signer_role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.SignedBy) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("signed_by is required"))
	}

	contract, err := s.contractService.Sign(c.Context(), id, req.SignedBy, req.SignerRole)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(contract)
}

// AttachContractDocument handles POST /api/staff/contracts/:id/documents
// @Summary Attach contract document
// @Tags contracts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contract ID"
// @Param file formData file true "Contract document"
// @Success 201 {object} models.ContractDocument
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/contracts/{id}/documents [post]
func (s *Server) AttachContractDocument(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	contract, err := s.contractService.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A file upload is required"))
	}

	f, openErr := fileHeader.Open()
	if openErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	path, saveErr := s.store.Save(contract.ContractNumber, "CONTRACT", fileHeader.Filename, f)
	if saveErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(saveErr))
	}

	doc, attachErr := s.contractService.AttachDocument(c.Context(), id, fileHeader.Filename, path, fileHeader.Size)
	if attachErr != nil {
		return respondServiceError(c, attachErr)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// ListContractDeliveries handles GET /api/staff/contracts/:id/deliveries
// @Summary List contract deliveries
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contract ID"
// @Success 200 {array} models.DeliveryTracking
// @Router /staff/contracts/{id}/deliveries [get]
func (s *Server) ListContractDeliveries(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	deliveries, err := s.deliveryService.ListForContract(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(deliveries)
}

// ListContractInvoices handles GET /api/staff/contracts/:id/invoices
// @Summary List contract invoices
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contract ID"
// @Success 200 {array} models.Invoice
// @Router /staff/contracts/{id}/invoices [get]
func (s *Server) ListContractInvoices(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invoices, err := s.invoiceService.ListForContract(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invoices)
}
