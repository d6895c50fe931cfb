package server

import (
	"gcxportal/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyApplication handles GET /api/supplier/application
// @Summary Get own application
// @Description Fetch the application linked to the authenticated supplier account
// @Tags supplier
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SupplierApplication
// @Failure 404 {object} models.ErrorResponse
// @Router /supplier/application [get]
func (s *Server) GetMyApplication(c *fiber.Ctx) error {
	app, err := s.supplierApplication(c)
	if err != nil {
		return nil
	}
	return c.JSON(app)
}

// GetMyContracts handles GET /api/supplier/contracts
// @Summary List own contracts
// @Tags supplier
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SupplierContract
// @Failure 404 {object} models.ErrorResponse
// @Router /supplier/contracts [get]
func (s *Server) GetMyContracts(c *fiber.Ctx) error {
	app, err := s.supplierApplication(c)
	if err != nil {
		return nil
	}

	contracts, err := s.contractService.ListForApplication(c.Context(), app.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(contracts)
}

// GetMyContractDeliveries handles GET /api/supplier/contracts/:id/deliveries
// @Summary List deliveries for own contract
// @Tags supplier
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contract ID"
// @Success 200 {array} models.DeliveryTracking
// @Failure 403 {object} models.ErrorResponse
// @Router /supplier/contracts/{id}/deliveries [get]
func (s *Server) GetMyContractDeliveries(c *fiber.Ctx) error {
	contractID, err := s.supplierContractID(c)
	if err != nil {
		return nil
	}

	deliveries, err := s.deliveryService.ListForContract(c.Context(), contractID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(deliveries)
}

// GetMyContractInvoices handles GET /api/supplier/contracts/:id/invoices
// @Summary List invoices for own contract
// @Tags supplier
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contract ID"
// @Success 200 {array} models.Invoice
// @Failure 403 {object} models.ErrorResponse
// @Router /supplier/contracts/{id}/invoices [get]
func (s *Server) GetMyContractInvoices(c *fiber.Ctx) error {
	contractID, err := s.supplierContractID(c)
	if err != nil {
		return nil
	}

	invoices, err := s.invoiceService.ListForContract(c.Context(), contractID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(invoices)
}

// supplierApplication loads the application owned by the authenticated user.
// On failure the response is already written and errResponseWritten returned.
func (s *Server) supplierApplication(c *fiber.Ctx) (*models.SupplierApplication, error) {
	userID := currentUserID(c)

	app, err := s.appRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if isNotFound(err) {
			_ = models.RespondWithError(c, fiber.StatusNotFound,
				models.NewValidationError("No application is linked to this account"))
		} else {
			_ = respondServiceError(c, err)
		}
		return nil, errResponseWritten
	}
	return app, nil
}

// supplierContractID validates that the :id contract belongs to the caller's
// application before exposing contract children.
func (s *Server) supplierContractID(c *fiber.Ctx) (uint, error) {
	id, err := s.parseID(c, "id")
	if err != nil {
		return 0, errResponseWritten
	}

	app, err := s.supplierApplication(c)
	if err != nil {
		return 0, errResponseWritten
	}

	contract, err := s.contractService.GetByID(c.Context(), id)
	if err != nil {
		_ = respondServiceError(c, err)
		return 0, errResponseWritten
	}
	if contract.ApplicationID != app.ID {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Contract does not belong to this account"))
		return 0, errResponseWritten
	}
	return id, nil
}
