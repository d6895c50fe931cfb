package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gcxportal/internal/middleware"
	"gcxportal/internal/models"
	"gcxportal/internal/notifications"
	"gcxportal/internal/observability"
	"gcxportal/internal/repository"
	"gcxportal/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ApplicationService owns the application status workflow: submission,
// review, approval and rejection. Every transition writes an audit row and
// fires best-effort notifications.
type ApplicationService struct {
	appRepo   repository.ApplicationRepository
	userRepo  repository.UserRepository
	refRepo   repository.ReferenceRepository
	auditRepo repository.AuditRepository
	docSvc    *DocumentService

	dispatcher *notifications.Dispatcher
	notifier   *notifications.Notifier
}

// NewApplicationService wires an ApplicationService. dispatcher and notifier
// may be nil.
func NewApplicationService(
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	refRepo repository.ReferenceRepository,
	auditRepo repository.AuditRepository,
	docSvc *DocumentService,
	dispatcher *notifications.Dispatcher,
	notifier *notifications.Notifier,
) *ApplicationService {
	return &ApplicationService{
		appRepo:    appRepo,
		userRepo:   userRepo,
		refRepo:    refRepo,
		auditRepo:  auditRepo,
		docSvc:     docSvc,
		dispatcher: dispatcher,
		notifier:   notifier,
	}
}

// SubmitApplicationInput is the public submission payload.
type SubmitApplicationInput struct {
	BusinessName       string
	RegistrationNumber string
	BusinessType       string
	RegionID           uint
	YearsInOperation   int
	ContactPerson      string
	Email              string
	Phone              string
	Address            string
	CommodityIDs       []uint
	OtherCommodities   string
	SchoolIDs          []uint
	DeclarationAgreed  bool
	TeamMembers        []models.TeamMember
	NextOfKin          []models.NextOfKin
	BankAccounts       []models.BankAccount
}

// Submit creates a new application in pending review. The declaration must
// be agreed; tracking code and completion token are generated here.
func (s *ApplicationService) Submit(ctx context.Context, in SubmitApplicationInput) (*models.SupplierApplication, error) {
	if !in.DeclarationAgreed {
		return nil, models.NewValidationError("Declaration must be agreed before submission")
	}
	if strings.TrimSpace(in.BusinessName) == "" {
		return nil, models.NewValidationError("Business name is required")
	}
	if strings.TrimSpace(in.ContactPerson) == "" {
		return nil, models.NewValidationError("Contact person is required")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	commodities, err := s.refRepo.GetCommoditiesByIDs(ctx, in.CommodityIDs)
	if err != nil {
		return nil, err
	}
	if len(commodities) == 0 && strings.TrimSpace(in.OtherCommodities) == "" {
		return nil, models.NewValidationError("At least one commodity must be selected or described")
	}

	trackingCode, err := generateTrackingCode()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	app := &models.SupplierApplication{
		BusinessName:       in.BusinessName,
		RegistrationNumber: in.RegistrationNumber,
		BusinessType:       in.BusinessType,
		RegionID:           in.RegionID,
		YearsInOperation:   in.YearsInOperation,
		ContactPerson:      in.ContactPerson,
		Email:              in.Email,
		Phone:              in.Phone,
		Address:            in.Address,
		Commodities:        commodities,
		OtherCommodities:   in.OtherCommodities,
		DeclarationAgreed:  true,
		Status:             models.StatusPendingReview,
		TrackingCode:       trackingCode,
		CompletionToken:    uuid.NewString(),
		TeamMembers:        in.TeamMembers,
		NextOfKin:          in.NextOfKin,
		BankAccounts:       in.BankAccounts,
	}

	if len(in.SchoolIDs) > 0 {
		for _, id := range in.SchoolIDs {
			school, err := s.refRepo.GetSchoolByID(ctx, id)
			if err != nil {
				return nil, err
			}
			app.Schools = append(app.Schools, *school)
		}
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	if _, err := s.docSvc.CheckCompleteness(ctx, app); err != nil {
		return nil, err
	}

	s.recordTransition(ctx, app, nil, models.AuditActionSubmitted, "", string(models.StatusPendingReview), nil)
	s.notify(notifications.Event{
		Type:  notifications.TypeApplicationSubmitted,
		Email: app.Email,
		Phone: app.Phone,
		Data: map[string]interface{}{
			"supplierName": app.ContactPerson,
			"trackingCode": app.TrackingCode,
		},
	})
	s.publishStaffEvent(ctx, app, "New supplier application submitted")

	return app, nil
}

// Track returns the application for a public tracking-code lookup.
func (s *ApplicationService) Track(ctx context.Context, code string) (*models.SupplierApplication, error) {
	return s.appRepo.GetByTrackingCode(ctx, code)
}

// List returns applications for the staff dashboard.
func (s *ApplicationService) List(ctx context.Context, status models.ApplicationStatus, limit, offset int) ([]models.SupplierApplication, int64, error) {
	return s.appRepo.List(ctx, status, limit, offset)
}

// GetForReview loads an application for a staff detail view. Opening an
// application in pending review moves it to under review as a side effect
// and stamps the reviewer.
func (s *ApplicationService) GetForReview(ctx context.Context, id, staffUserID uint) (*models.SupplierApplication, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status == models.StatusPendingReview {
		now := time.Now()
		oldStatus := app.Status
		app.Status = models.StatusUnderReview
		app.ReviewedAt = &now
		app.ReviewedByUserID = &staffUserID
		if err := s.appRepo.Update(ctx, app); err != nil {
			return nil, err
		}
		s.recordTransition(ctx, app, &staffUserID, models.AuditActionReviewStarted, string(oldStatus), string(app.Status), nil)
	}

	return app, nil
}

// Approve transitions a reviewable application to approved. Every required
// document must be verified. A supplier account is created only when the
// application has none; the temporary password is delivered by notification
// and must be changed at first login.
func (s *ApplicationService) Approve(ctx context.Context, id, staffUserID uint) (*models.SupplierApplication, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.IsReviewable() {
		return nil, models.NewValidationError(fmt.Sprintf("Application in status %s cannot be approved", app.Status))
	}

	if err := s.requireVerifiedDocuments(ctx, app); err != nil {
		return nil, err
	}

	notifyData := map[string]interface{}{
		"supplierName": app.ContactPerson,
		"trackingCode": app.TrackingCode,
	}

	if app.UserID == nil {
		user, tempPassword, err := s.ensureSupplierAccount(ctx, app)
		if err != nil {
			return nil, err
		}
		app.UserID = &user.ID
		notifyData["username"] = user.Username
		if tempPassword != "" {
			notifyData["tempPassword"] = tempPassword
		}
	}

	oldStatus := app.Status
	now := time.Now()
	app.Status = models.StatusApproved
	app.ReviewedAt = &now
	app.ReviewedByUserID = &staffUserID
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.recordTransition(ctx, app, &staffUserID, models.AuditActionApproved, string(oldStatus), string(app.Status), nil)
	s.notify(notifications.Event{
		Type:  notifications.TypeApplicationApproved,
		Email: app.Email,
		Phone: app.Phone,
		Data:  notifyData,
	})
	s.publishStaffEvent(ctx, app, "Application approved")

	return app, nil
}

// Reject transitions a reviewable application to rejected. The reason is
// mandatory; without one the status is left unchanged.
func (s *ApplicationService) Reject(ctx context.Context, id, staffUserID uint, reason string) (*models.SupplierApplication, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.NewValidationError("A rejection reason is required")
	}

	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !app.IsReviewable() {
		return nil, models.NewValidationError(fmt.Sprintf("Application in status %s cannot be rejected", app.Status))
	}

	oldStatus := app.Status
	now := time.Now()
	app.Status = models.StatusRejected
	app.RejectionReason = reason
	app.ReviewedAt = &now
	app.ReviewedByUserID = &staffUserID
	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.recordTransition(ctx, app, &staffUserID, models.AuditActionRejected, string(oldStatus), string(app.Status),
		map[string]interface{}{"reason": reason})
	s.notify(notifications.Event{
		Type:  notifications.TypeApplicationRejected,
		Email: app.Email,
		Phone: app.Phone,
		Data: map[string]interface{}{
			"supplierName": app.ContactPerson,
			"trackingCode": app.TrackingCode,
			"reason":       reason,
		},
	})
	s.publishStaffEvent(ctx, app, "Application rejected")

	return app, nil
}

// requireVerifiedDocuments fails with a validation error when any required
// document is missing or unverified.
func (s *ApplicationService) requireVerifiedDocuments(ctx context.Context, app *models.SupplierApplication) error {
	required, err := s.docSvc.RequiredRequirements(ctx, app)
	if err != nil {
		return err
	}
	if len(required) == 0 {
		return nil
	}

	uploads, err := s.docSvc.docRepo.ListUploadsByApplication(ctx, app.ID)
	if err != nil {
		return err
	}
	verified := make(map[uint]bool, len(uploads))
	for _, u := range uploads {
		if u.Verified {
			verified[u.RequirementID] = true
		}
	}

	var unmet []string
	for _, req := range required {
		if !verified[req.ID] {
			unmet = append(unmet, req.Code)
		}
	}
	if len(unmet) > 0 {
		return models.NewValidationError(fmt.Sprintf("Cannot approve: documents not verified: %s", strings.Join(unmet, ", ")))
	}
	return nil
}

// ensureSupplierAccount finds or creates the supplier account for an
// application. A fresh account gets a generated temporary password.
func (s *ApplicationService) ensureSupplierAccount(ctx context.Context, app *models.SupplierApplication) (*models.User, string, error) {
	existing, err := s.userRepo.GetByEmail(ctx, app.Email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return existing, "", nil
	}

	tempPassword, err := validation.GenerateTempPassword()
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	user := &models.User{
		Username:           strings.ToLower(app.TrackingCode),
		Email:              app.Email,
		Password:           string(hashed),
		Phone:              app.Phone,
		Role:               models.RoleSupplier,
		MustChangePassword: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}
	return user, tempPassword, nil
}

func (s *ApplicationService) recordTransition(ctx context.Context, app *models.SupplierApplication, actor *uint, action, oldStatus, newStatus string, metadata map[string]interface{}) {
	observability.ApplicationTransitions.WithLabelValues(action).Inc()

	entry := &models.AuditLog{
		ApplicationID: app.ID,
		ActorUserID:   actor,
		Action:        action,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
	}
	entry.SetMetadata(metadata)
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		middleware.Logger.Warn("failed to write audit log",
			slog.Uint64("application_id", uint64(app.ID)),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ApplicationService) notify(ev notifications.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Enqueue(ev)
}

func (s *ApplicationService) publishStaffEvent(ctx context.Context, app *models.SupplierApplication, message string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.PublishStaffEvent(ctx, notifications.StaffEvent{
		Type:          string(app.Status),
		ApplicationID: app.ID,
		TrackingCode:  app.TrackingCode,
		Message:       message,
	})
	if err != nil {
		middleware.Logger.Warn("failed to publish staff event",
			slog.Uint64("application_id", uint64(app.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// generateTrackingCode returns a human-shareable identifier of the form
// GCX-SUP-XXXXXXXX.
func generateTrackingCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "GCX-SUP-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
