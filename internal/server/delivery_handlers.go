package server

import (
	"strings"
	"time"

	"gcxportal/internal/models"
	"gcxportal/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ScheduleDelivery handles POST /api/staff/deliveries
// @Summary Schedule delivery
// @Description Schedule a delivery against an active contract
// @Tags deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{contract_id=int,school_id=int,quantity=string,scheduled_for=string} true "Delivery payload"
// @Success 201 {object} models.DeliveryTracking
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/deliveries [post]
func (s *Server) ScheduleDelivery(c *fiber.Ctx) error {
	var req struct {
		ContractID   uint            `json:"contract_id"`
		SchoolID     uint            `json:"school_id"`
		Quantity     decimal.Decimal `json:"quantity"`
		ScheduledFor time.Time       `json:"scheduled_for"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	delivery, err := s.deliveryService.Schedule(c.Context(), service.ScheduleDeliveryInput{
		ContractID:   req.ContractID,
		SchoolID:     req.SchoolID,
		Quantity:     req.Quantity,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(delivery)
}

// GetDelivery handles GET /api/staff/deliveries/:id
// @Summary Get delivery
// @Tags deliveries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Success 200 {object} models.DeliveryTracking
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/deliveries/{id} [get]
func (s *Server) GetDelivery(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	delivery, err := s.deliveryService.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(delivery)
}

// MarkDeliveryInTransit handles POST /api/staff/deliveries/:id/in-transit
// @Summary Mark delivery in transit
// @Tags deliveries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Success 200 {object} models.DeliveryTracking
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/deliveries/{id}/in-transit [post]
func (s *Server) MarkDeliveryInTransit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	delivery, err := s.deliveryService.MarkInTransit(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(delivery)
}

// MarkDeliveryDelivered handles POST /api/staff/deliveries/:id/delivered
// @Summary Mark delivery delivered
// @Tags deliveries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Success 200 {object} models.DeliveryTracking
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/deliveries/{id}/delivered [post]
func (s *Server) MarkDeliveryDelivered(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	delivery, err := s.deliveryService.MarkDelivered(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(delivery)
}

// ConfirmDelivery handles POST /api/staff/deliveries/:id/confirm
// @Summary Confirm delivery
// @Description Confirm receipt of a delivered consignment; issues the store receipt voucher exactly once
// @Tags deliveries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Delivery ID"
// @Param request body object{received_by=string} true "Receiving officer"
// @Success 200 {object} object{delivery=models.DeliveryTracking,voucher=models.StoreReceiptVoucher}
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/deliveries/{id}/confirm [post]
func (s *Server) ConfirmDelivery(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		ReceivedBy string `json:"received_by"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.ReceivedBy) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("received_by is required"))
	}

	delivery, voucher, err := s.deliveryService.Confirm(c.Context(), id, req.ReceivedBy)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"delivery": delivery,
		"voucher":  voucher,
	})
}
