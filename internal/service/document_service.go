// Package service implements the portal's workflow logic on top of the
// repository layer.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gcxportal/internal/middleware"
	"gcxportal/internal/models"
	"gcxportal/internal/notifications"
	"gcxportal/internal/observability"
	"gcxportal/internal/repository"
	"gcxportal/internal/storage"
	"gcxportal/internal/validation"
)

// processedFoodTerms are free-text markers in the "other commodities" field
// that pull in the FDA certificate requirement. Carried over from the
// existing review policy; see DESIGN.md for the caveats of keyword matching.
var processedFoodTerms = []string{
	"tom brown",
	"palm oil",
	"gari",
	"shito",
	"groundnut paste",
}

// DocumentService owns the document-completeness workflow: the required-set
// computation, uploads, staff verification and outstanding-request
// resolution.
type DocumentService struct {
	docRepo   repository.DocumentRepository
	appRepo   repository.ApplicationRepository
	auditRepo repository.AuditRepository
	store     storage.Store

	dispatcher *notifications.Dispatcher
	notifier   *notifications.Notifier

	completionWindow time.Duration
	baseURL          string
}

// NewDocumentService wires a DocumentService. dispatcher and notifier may be
// nil; all notification side effects are best-effort.
func NewDocumentService(
	docRepo repository.DocumentRepository,
	appRepo repository.ApplicationRepository,
	auditRepo repository.AuditRepository,
	store storage.Store,
	dispatcher *notifications.Dispatcher,
	notifier *notifications.Notifier,
	completionDays int,
	baseURL string,
) *DocumentService {
	return &DocumentService{
		docRepo:          docRepo,
		appRepo:          appRepo,
		auditRepo:        auditRepo,
		store:            store,
		dispatcher:       dispatcher,
		notifier:         notifier,
		completionWindow: time.Duration(completionDays) * 24 * time.Hour,
		baseURL:          baseURL,
	}
}

// RequiredRequirements computes the required-document set for an
// application: every active requirement flagged IsRequired, plus the FDA
// certificate when any selected commodity is a processed food or the
// free-text commodities mention a known processed-food term.
func (s *DocumentService) RequiredRequirements(ctx context.Context, app *models.SupplierApplication) ([]models.DocumentRequirement, error) {
	all, err := s.docRepo.ListActiveRequirements(ctx)
	if err != nil {
		return nil, err
	}

	needsFDA := false
	for _, c := range app.Commodities {
		if c.IsProcessedFood {
			needsFDA = true
			break
		}
	}
	if !needsFDA && app.OtherCommodities != "" {
		other := strings.ToLower(app.OtherCommodities)
		for _, term := range processedFoodTerms {
			if strings.Contains(other, term) {
				needsFDA = true
				break
			}
		}
	}

	var required []models.DocumentRequirement
	for _, req := range all {
		if req.IsRequired || (needsFDA && req.Code == models.RequirementFDACertificate) {
			required = append(required, req)
		}
	}
	return required, nil
}

// CheckCompleteness recomputes the missing-document list for an application
// in pending review and persists it. It is idempotent: re-running with no
// intervening upload yields the same list. When the list empties, the
// completion deadline is cleared.
func (s *DocumentService) CheckCompleteness(ctx context.Context, app *models.SupplierApplication) ([]string, error) {
	if app.Status != models.StatusPendingReview {
		return app.MissingList(), nil
	}

	required, err := s.RequiredRequirements(ctx, app)
	if err != nil {
		return nil, err
	}

	uploads, err := s.docRepo.ListUploadsByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	uploaded := make(map[uint]bool, len(uploads))
	for _, u := range uploads {
		uploaded[u.RequirementID] = true
	}

	var missing []string
	for _, req := range required {
		if !uploaded[req.ID] {
			missing = append(missing, req.Code)
		}
	}
	sort.Strings(missing)

	app.SetMissingList(missing)
	if len(missing) == 0 {
		app.DocumentCompletionDeadline = nil
	}
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	return app.MissingList(), nil
}

// UploadInput carries one candidate document upload.
type UploadInput struct {
	RequirementID uint
	FileName      string
	FileSize      int64
	ContentType   string
	Content       io.Reader
}

// Upload validates, stores and records one document for an application,
// then re-runs the completeness check. A re-upload for the same requirement
// replaces the previous file and resets verification.
func (s *DocumentService) Upload(ctx context.Context, app *models.SupplierApplication, in UploadInput) (*models.DocumentUpload, error) {
	req, err := s.docRepo.GetRequirementByID(ctx, in.RequirementID)
	if err != nil {
		return nil, err
	}
	if !req.IsActive {
		return nil, models.NewValidationError(fmt.Sprintf("Document requirement %s is no longer active", req.Code))
	}

	if err := validation.ValidateUpload(req, in.FileName, in.FileSize); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	path, err := s.store.Save(app.TrackingCode, req.Code, in.FileName, in.Content)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	upload := &models.DocumentUpload{
		ApplicationID: app.ID,
		RequirementID: req.ID,
		FileName:      in.FileName,
		FilePath:      path,
		FileSize:      in.FileSize,
		ContentType:   in.ContentType,
		Verified:      false,
	}
	if err := s.docRepo.UpsertUpload(ctx, upload); err != nil {
		return nil, err
	}

	observability.DocumentUploads.WithLabelValues(req.Code).Inc()

	if _, err := s.CheckCompleteness(ctx, app); err != nil {
		return nil, err
	}
	return upload, nil
}

// UploadByToken accepts an unauthenticated upload through a completion
// token. The token gate is the application's completion deadline.
func (s *DocumentService) UploadByToken(ctx context.Context, token string, in UploadInput) (*models.DocumentUpload, error) {
	app, err := s.appRepo.GetByCompletionToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !app.IsCompletionTokenValid() {
		return nil, models.NewValidationError("The document completion window for this application has expired")
	}
	return s.Upload(ctx, app, in)
}

// GetByCompletionToken returns the application and its current uploads for
// the unauthenticated completion view.
func (s *DocumentService) GetByCompletionToken(ctx context.Context, token string) (*models.SupplierApplication, []models.DocumentUpload, error) {
	app, err := s.appRepo.GetByCompletionToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if !app.IsCompletionTokenValid() {
		return nil, nil, models.NewValidationError("The document completion window for this application has expired")
	}
	uploads, err := s.docRepo.ListUploadsByApplication(ctx, app.ID)
	if err != nil {
		return nil, nil, err
	}
	return app, uploads, nil
}

// Verify marks an upload as verified by a staff member, then re-checks every
// unresolved outstanding request of the application.
func (s *DocumentService) Verify(ctx context.Context, uploadID, staffUserID uint) (*models.DocumentUpload, error) {
	upload, err := s.docRepo.GetUploadByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	upload.Verified = true
	upload.VerifiedByUserID = &staffUserID
	upload.VerifiedAt = &now
	if err := s.docRepo.UpdateUpload(ctx, upload); err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetByID(ctx, upload.ApplicationID)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLog{
		ApplicationID: app.ID,
		ActorUserID:   &staffUserID,
		Action:        models.AuditActionDocumentVerified,
		OldStatus:     string(app.Status),
		NewStatus:     string(app.Status),
	}
	if upload.Requirement != nil {
		entry.SetMetadata(map[string]interface{}{"requirement": upload.Requirement.Code})
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		middleware.Logger.Warn("failed to write audit log for verification",
			slog.Uint64("application_id", uint64(app.ID)),
			slog.String("error", err.Error()),
		)
	}

	if s.dispatcher != nil {
		documentName := upload.FileName
		if upload.Requirement != nil {
			documentName = upload.Requirement.Name
		}
		s.dispatcher.Enqueue(notifications.Event{
			Type:  notifications.TypeDocumentVerified,
			Email: app.Email,
			Phone: app.Phone,
			Data: map[string]interface{}{
				"supplierName": app.ContactPerson,
				"documentName": documentName,
				"trackingCode": app.TrackingCode,
			},
		})
	}

	if err := s.ResolveOutstanding(ctx, app.ID); err != nil {
		return nil, err
	}
	return upload, nil
}

// ResolveOutstanding re-evaluates every unresolved outstanding request of an
// application: a request resolves once each linked requirement has a
// verified upload. Safe to call repeatedly.
func (s *DocumentService) ResolveOutstanding(ctx context.Context, applicationID uint) error {
	requests, err := s.docRepo.ListUnresolvedRequests(ctx, applicationID)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return nil
	}

	uploads, err := s.docRepo.ListUploadsByApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	verified := make(map[uint]bool, len(uploads))
	for _, u := range uploads {
		if u.Verified {
			verified[u.RequirementID] = true
		}
	}

	for i := range requests {
		req := &requests[i]
		complete := true
		for _, linked := range req.Requirements {
			if !verified[linked.ID] {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		now := time.Now()
		req.IsResolved = true
		req.ResolvedAt = &now
		if err := s.docRepo.UpdateOutstandingRequest(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// CreateOutstandingRequest snapshots the currently-missing requirements into
// a staff-issued request and opens the completion window on the application.
func (s *DocumentService) CreateOutstandingRequest(ctx context.Context, applicationID uint, message string, staffUserID uint) (*models.OutstandingDocumentRequest, error) {
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	missing, err := s.CheckCompleteness(ctx, app)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, models.NewValidationError("Application has no missing documents to request")
	}

	var reqs []models.DocumentRequirement
	for _, code := range missing {
		req, err := s.docRepo.GetRequirementByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}

	request := &models.OutstandingDocumentRequest{
		ApplicationID:   app.ID,
		Message:         message,
		Requirements:    reqs,
		CreatedByUserID: staffUserID,
	}
	if err := s.docRepo.CreateOutstandingRequest(ctx, request); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(s.completionWindow)
	app.DocumentCompletionDeadline = &deadline
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	entry := &models.AuditLog{
		ApplicationID: app.ID,
		ActorUserID:   &staffUserID,
		Action:        models.AuditActionDocumentsRequested,
		OldStatus:     string(app.Status),
		NewStatus:     string(app.Status),
	}
	entry.SetMetadata(map[string]interface{}{"documents": missing, "message": message})
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		middleware.Logger.Warn("failed to write audit log for document request",
			slog.Uint64("application_id", uint64(app.ID)),
			slog.String("error", err.Error()),
		)
	}

	if s.dispatcher != nil {
		s.dispatcher.Enqueue(notifications.Event{
			Type:  notifications.TypeDocumentsRequested,
			Email: app.Email,
			Phone: app.Phone,
			Data: map[string]interface{}{
				"supplierName": app.ContactPerson,
				"trackingCode": app.TrackingCode,
				"documents":    strings.Join(missing, ", "),
				"deadline":     deadline.Format("2 January 2006"),
				"uploadLink":   fmt.Sprintf("%s/complete/%s", s.baseURL, app.CompletionToken),
			},
		})
	}

	return request, nil
}
