package server

import (
	"fmt"
	"time"

	"gcxportal/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate a supplier or staff user with username/email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{login=string,password=string} true "Login request"
// @Success 200 {object} object{token=string,user=models.User,must_change_password=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Login == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Login and password are required"))
	}

	user, err := s.userService.Authenticate(c.Context(), req.Login, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":                token,
		"user":                 user,
		"must_change_password": user.MustChangePassword,
	})
}

// ChangePassword handles POST /api/auth/change-password
// @Summary Change password
// @Description Change the authenticated user's password; clears the temporary-password flag
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{current_password=string,new_password=string} true "Password change request"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/change-password [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Current and new passwords are required"))
	}

	if err := s.userService.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue WebSocket ticket
// @Description Issue a short-lived single-use ticket for the staff event feed WebSocket
// @Tags websocket
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("ticket store unavailable")))
	}

	userID := currentUserID(c)
	ticket := uuid.New().String()
	key := fmt.Sprintf("ws_ticket:%s", ticket)

	const ticketTTL = 30 * time.Second
	if err := s.redis.Set(c.Context(), key, fmt.Sprintf("%d", userID), ticketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}
