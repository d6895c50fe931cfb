package server

import (
	"time"

	"gcxportal/internal/models"
	"gcxportal/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// IssueInvoice handles POST /api/staff/invoices
// @Summary Issue invoice
// @Description Issue an invoice against an active or completed contract
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{contract_id=int,amount=string,due_date=string} true "Invoice payload"
// @Success 201 {object} models.Invoice
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/invoices [post]
func (s *Server) IssueInvoice(c *fiber.Ctx) error {
	var req struct {
		ContractID uint            `json:"contract_id"`
		Amount     decimal.Decimal `json:"amount"`
		DueDate    time.Time       `json:"due_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	invoice, err := s.invoiceService.Issue(c.Context(), service.IssueInvoiceInput{
		ContractID: req.ContractID,
		Amount:     req.Amount,
		DueDate:    req.DueDate,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetInvoice handles GET /api/staff/invoices/:id
// @Summary Get invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.Invoice
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/invoices/{id} [get]
func (s *Server) GetInvoice(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invoice, err := s.invoiceService.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invoice)
}

// PayInvoice handles POST /api/staff/invoices/:id/pay
// @Summary Mark invoice paid
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.Invoice
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/invoices/{id}/pay [post]
func (s *Server) PayInvoice(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invoice, err := s.invoiceService.Pay(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invoice)
}

// CancelInvoice handles POST /api/staff/invoices/:id/cancel
// @Summary Cancel invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} models.Invoice
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/invoices/{id}/cancel [post]
func (s *Server) CancelInvoice(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invoice, err := s.invoiceService.Cancel(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invoice)
}
