package server

import (
	"strings"

	"gcxportal/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListApplications handles GET /api/staff/applications
// @Summary List applications
// @Description List supplier applications with optional status filter
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{applications=[]models.SupplierApplication,total=int}
// @Router /staff/applications [get]
func (s *Server) ListApplications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	status := models.ApplicationStatus(c.Query("status"))
	switch status {
	case "", models.StatusPendingReview, models.StatusUnderReview, models.StatusApproved, models.StatusRejected:
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown application status"))
	}

	apps, total, err := s.appService.List(c.Context(), status, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"applications": apps,
		"total":        total,
		"limit":        page.Limit,
		"offset":       page.Offset,
	})
}

// GetApplicationForReview handles GET /api/staff/applications/:id
// @Summary Get application for review
// @Description Fetch an application with documents; moves pending applications to under review
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.SupplierApplication
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/applications/{id} [get]
func (s *Server) GetApplicationForReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.appService.GetForReview(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// ApproveApplication handles POST /api/staff/applications/:id/approve
// @Summary Approve application
// @Description Approve a reviewable application; creates the supplier account when needed
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.SupplierApplication
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/applications/{id}/approve [post]
func (s *Server) ApproveApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.appService.Approve(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// RejectApplication handles POST /api/staff/applications/:id/reject
// @Summary Reject application
// @Description Reject a reviewable application with a mandatory reason
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body object{reason=string} true "Rejection reason"
// @Success 200 {object} models.SupplierApplication
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/applications/{id}/reject [post]
func (s *Server) RejectApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.appService.Reject(c.Context(), id, currentUserID(c), req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// GetApplicationDocuments handles GET /api/staff/applications/:id/documents
// @Summary List application documents
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} object{uploads=[]models.DocumentUpload,missing_documents=[]string}
// @Router /staff/applications/{id}/documents [get]
func (s *Server) GetApplicationDocuments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.appRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	uploads, err := s.docRepo.ListUploadsByApplication(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"uploads":           uploads,
		"missing_documents": app.MissingList(),
		"deadline":          app.DocumentCompletionDeadline,
	})
}

// UploadApplicationDocument handles POST /api/staff/applications/:id/documents
// @Summary Upload document on behalf of applicant
// @Tags staff
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param requirement_id formData int true "Requirement ID"
// @Param file formData file true "Document file"
// @Success 201 {object} models.DocumentUpload
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/applications/{id}/documents [post]
func (s *Server) UploadApplicationDocument(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.appRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	in, err := s.parseUploadForm(c)
	if err != nil {
		return nil
	}

	upload, err := s.docService.Upload(c.Context(), app, *in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}

// CreateDocumentRequest handles POST /api/staff/applications/:id/document-requests
// @Summary Request outstanding documents
// @Description Snapshot the missing documents, set the completion deadline and notify the applicant
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body object{message=string} false "Message to the applicant"
// @Success 201 {object} models.OutstandingDocumentRequest
// @Failure 400 {object} models.ErrorResponse
// @Router /staff/applications/{id}/document-requests [post]
func (s *Server) CreateDocumentRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	// The message is optional; an empty body is fine.
	_ = c.BodyParser(&req)

	outstanding, err := s.docService.CreateOutstandingRequest(c.Context(), id, strings.TrimSpace(req.Message), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(outstanding)
}

// VerifyDocumentUpload handles POST /api/staff/uploads/:id/verify
// @Summary Verify document upload
// @Description Mark an upload verified; resolves outstanding requests whose requirements are all verified
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "Upload ID"
// @Success 200 {object} models.DocumentUpload
// @Failure 404 {object} models.ErrorResponse
// @Router /staff/uploads/{id}/verify [post]
func (s *Server) VerifyDocumentUpload(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	upload, err := s.docService.Verify(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(upload)
}

// ListRequirements handles GET /api/staff/requirements
// @Summary List document requirements
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.DocumentRequirement
// @Router /staff/requirements [get]
func (s *Server) ListRequirements(c *fiber.Ctx) error {
	reqs, err := s.docRepo.ListActiveRequirements(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(reqs)
}

// CreateRequirement handles POST /api/staff/requirements
// @Summary Create document requirement
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DocumentRequirement true "Requirement"
// @Success 201 {object} models.DocumentRequirement
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /staff/requirements [post]
func (s *Server) CreateRequirement(c *fiber.Ctx) error {
	var req struct {
		Code              string `json:"code"`
		Name              string `json:"name"`
		Description       string `json:"description"`
		IsRequired        bool   `json:"is_required"`
		AllowedExtensions string `json:"allowed_extensions"`
		MaxFileSizeMB     int    `json:"max_file_size_mb"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Code == "" || strings.TrimSpace(req.Name) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Code and name are required"))
	}

	// A NOT_FOUND here is the normal case: the code is free to use.
	existing, err := s.docRepo.GetRequirementByCode(c.Context(), req.Code)
	if err != nil && !isNotFound(err) {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("A requirement with this code already exists"))
	}

	requirement := &models.DocumentRequirement{
		Code:              req.Code,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		IsRequired:        req.IsRequired,
		IsActive:          true,
		AllowedExtensions: req.AllowedExtensions,
		MaxFileSizeMB:     req.MaxFileSizeMB,
	}
	if createErr := s.docRepo.CreateRequirement(c.Context(), requirement); createErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(createErr))
	}

	return c.Status(fiber.StatusCreated).JSON(requirement)
}

// GetApplicationAuditLogs handles GET /api/staff/applications/:id/audit-logs
// @Summary Application audit trail
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {array} models.AuditLog
// @Router /staff/applications/{id}/audit-logs [get]
func (s *Server) GetApplicationAuditLogs(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	logs, err := s.auditRepo.ListByApplication(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(logs)
}

// ListAuditLogs handles GET /api/staff/audit-logs
// @Summary List audit logs
// @Tags staff
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} object{logs=[]models.AuditLog,total=int}
// @Router /staff/audit-logs [get]
func (s *Server) ListAuditLogs(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	logs, total, err := s.auditRepo.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"logs":   logs,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}
