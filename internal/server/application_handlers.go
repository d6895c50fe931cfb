package server

import (
	"strconv"
	"strings"

	"gcxportal/internal/models"
	"gcxportal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetRegions handles GET /api/reference/regions
// @Summary List regions
// @Tags reference
// @Produce json
// @Success 200 {array} models.Region
// @Router /reference/regions [get]
func (s *Server) GetRegions(c *fiber.Ctx) error {
	regions, err := s.refRepo.ListRegions(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(regions)
}

// GetCommodities handles GET /api/reference/commodities
// @Summary List commodities
// @Tags reference
// @Produce json
// @Success 200 {array} models.Commodity
// @Router /reference/commodities [get]
func (s *Server) GetCommodities(c *fiber.Ctx) error {
	commodities, err := s.refRepo.ListCommodities(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(commodities)
}

// GetSchools handles GET /api/reference/schools
// @Summary List schools
// @Tags reference
// @Produce json
// @Success 200 {array} models.School
// @Router /reference/schools [get]
func (s *Server) GetSchools(c *fiber.Ctx) error {
	schools, err := s.refRepo.ListSchools(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(schools)
}

// SubmitApplication handles POST /api/applications
// @Summary Submit supplier application
// @Description Submit a new supplier application; returns the tracking code
// @Tags applications
// @Accept json
// @Produce json
// @Param request body service.SubmitApplicationInput true "Application payload"
// @Success 201 {object} object{tracking_code=string,status=string,missing_documents=[]string}
// @Failure 400 {object} models.ErrorResponse
// @Router /applications [post]
func (s *Server) SubmitApplication(c *fiber.Ctx) error {
	var req struct {
		BusinessName       string              `json:"business_name"`
		RegistrationNumber string              `json:"registration_number"`
		BusinessType       string              `json:"business_type"`
		RegionID           uint                `json:"region_id"`
		YearsInOperation   int                 `json:"years_in_operation"`
		ContactPerson      string              `json:"contact_person"`
		Email              string              `json:"email"`
		Phone              string              `json:"phone"`
		Address            string              `json:"address"`
		CommodityIDs       []uint              `json:"commodity_ids"`
		OtherCommodities   string              `json:"other_commodities"`
		SchoolIDs          []uint              `json:"school_ids"`
		DeclarationAgreed  bool                `json:"declaration_agreed"`
		TeamMembers        []models.TeamMember `json:"team_members"`
		NextOfKin          []models.NextOfKin  `json:"next_of_kin"`
		BankAccounts       []models.BankAccount `json:"bank_accounts"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.appService.Submit(c.Context(), service.SubmitApplicationInput{
		BusinessName:       req.BusinessName,
		RegistrationNumber: req.RegistrationNumber,
		BusinessType:       req.BusinessType,
		RegionID:           req.RegionID,
		YearsInOperation:   req.YearsInOperation,
		ContactPerson:      req.ContactPerson,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		CommodityIDs:       req.CommodityIDs,
		OtherCommodities:   req.OtherCommodities,
		SchoolIDs:          req.SchoolIDs,
		DeclarationAgreed:  req.DeclarationAgreed,
		TeamMembers:        req.TeamMembers,
		NextOfKin:          req.NextOfKin,
		BankAccounts:       req.BankAccounts,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tracking_code":     app.TrackingCode,
		"status":            app.Status,
		"missing_documents": app.MissingList(),
	})
}

// TrackApplication handles GET /api/applications/track/:code
// @Summary Track application
// @Description Look up application status by tracking code; public, no PII beyond business name
// @Tags applications
// @Produce json
// @Param code path string true "Tracking code"
// @Success 200 {object} object{tracking_code=string,business_name=string,status=string,submitted_at=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /applications/track/{code} [get]
func (s *Server) TrackApplication(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Tracking code is required"))
	}

	app, err := s.appService.Track(c.Context(), code)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Public view: keep this to fields safe for anyone holding the code.
	resp := fiber.Map{
		"tracking_code":     app.TrackingCode,
		"business_name":     app.BusinessName,
		"status":            app.Status,
		"submitted_at":      app.CreatedAt,
		"missing_documents": app.MissingList(),
	}
	if app.Status == models.StatusRejected && app.RejectionReason != "" {
		resp["rejection_reason"] = app.RejectionReason
	}
	return c.JSON(resp)
}

// GetCompletionView handles GET /api/applications/complete/:token
// @Summary Outstanding documents view
// @Description Show missing and uploaded documents for a completion token
// @Tags applications
// @Produce json
// @Param token path string true "Completion token"
// @Success 200 {object} object{business_name=string,missing_documents=[]string,uploads=[]models.DocumentUpload,deadline=string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Router /applications/complete/{token} [get]
func (s *Server) GetCompletionView(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Completion token is required"))
	}

	app, uploads, err := s.docService.GetByCompletionToken(c.Context(), token)
	if err != nil {
		return respondServiceError(c, err)
	}

	required, err := s.docService.RequiredRequirements(c.Context(), app)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"business_name":     app.BusinessName,
		"tracking_code":     app.TrackingCode,
		"status":            app.Status,
		"missing_documents": app.MissingList(),
		"requirements":      required,
		"uploads":           uploads,
		"deadline":          app.DocumentCompletionDeadline,
	})
}

// UploadByCompletionToken handles POST /api/applications/complete/:token/documents
// @Summary Upload document by completion token
// @Description Upload one document for an outstanding requirement; replaces any prior upload for the same requirement
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Param token path string true "Completion token"
// @Param requirement_id formData int true "Requirement ID"
// @Param file formData file true "Document file"
// @Success 201 {object} models.DocumentUpload
// @Failure 400 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Router /applications/complete/{token}/documents [post]
func (s *Server) UploadByCompletionToken(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Completion token is required"))
	}

	in, err := s.parseUploadForm(c)
	if err != nil {
		return nil
	}

	upload, err := s.docService.UploadByToken(c.Context(), token, *in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(upload)
}

// parseUploadForm extracts the multipart document-upload payload. On failure
// it writes the 400 response and returns errResponseWritten.
func (s *Server) parseUploadForm(c *fiber.Ctx) (*service.UploadInput, error) {
	requirementID := c.FormValue("requirement_id")
	if requirementID == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("requirement_id is required"))
		return nil, errResponseWritten
	}

	id, convErr := strconv.Atoi(requirementID)
	if convErr != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid requirement ID"))
		return nil, errResponseWritten
	}

	fileHeader, err2 := c.FormFile("file")
	if err2 != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A file upload is required"))
		return nil, errResponseWritten
	}

	f, openErr := fileHeader.Open()
	if openErr != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
		return nil, errResponseWritten
	}
	// Fiber closes multipart file handles when the request completes.

	return &service.UploadInput{
		RequirementID: uint(id),
		FileName:      fileHeader.Filename,
		FileSize:      fileHeader.Size,
		ContentType:   fileHeader.Header.Get("Content-Type"),
		Content:       f,
	}, nil
}
