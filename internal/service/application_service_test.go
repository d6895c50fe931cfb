package service

import (
	"context"
	"strings"
	"testing"

	"gcxportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		updateFn:        func(context.Context, *models.User) error { return nil },
	}
}

type refRepoStub struct {
	listRegionsFn         func(context.Context) ([]models.Region, error)
	listCommoditiesFn     func(context.Context) ([]models.Commodity, error)
	listSchoolsFn         func(context.Context) ([]models.School, error)
	getCommoditiesByIDsFn func(context.Context, []uint) ([]models.Commodity, error)
	getSchoolByIDFn       func(context.Context, uint) (*models.School, error)
}

func (s *refRepoStub) ListRegions(ctx context.Context) ([]models.Region, error) {
	return s.listRegionsFn(ctx)
}
func (s *refRepoStub) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	return s.listCommoditiesFn(ctx)
}
func (s *refRepoStub) ListSchools(ctx context.Context) ([]models.School, error) {
	return s.listSchoolsFn(ctx)
}
func (s *refRepoStub) GetCommoditiesByIDs(ctx context.Context, ids []uint) ([]models.Commodity, error) {
	return s.getCommoditiesByIDsFn(ctx, ids)
}
func (s *refRepoStub) GetSchoolByID(ctx context.Context, id uint) (*models.School, error) {
	return s.getSchoolByIDFn(ctx, id)
}

func noopRefRepo() *refRepoStub {
	return &refRepoStub{
		listRegionsFn:     func(context.Context) ([]models.Region, error) { return nil, nil },
		listCommoditiesFn: func(context.Context) ([]models.Commodity, error) { return nil, nil },
		listSchoolsFn:     func(context.Context) ([]models.School, error) { return nil, nil },
		getCommoditiesByIDsFn: func(_ context.Context, ids []uint) ([]models.Commodity, error) {
			commodities := make([]models.Commodity, 0, len(ids))
			for _, id := range ids {
				commodities = append(commodities, models.Commodity{ID: id, Code: "MAIZE"})
			}
			return commodities, nil
		},
		getSchoolByIDFn: func(_ context.Context, id uint) (*models.School, error) {
			return &models.School{ID: id}, nil
		},
	}
}

func newAppService(appRepo *appRepoStub, userRepo *userRepoStub, docRepo *docRepoStub) *ApplicationService {
	docSvc := newDocService(docRepo, appRepo)
	return NewApplicationService(appRepo, userRepo, noopRefRepo(), noopAuditRepo(), docSvc, nil, nil)
}

func validSubmission() SubmitApplicationInput {
	return SubmitApplicationInput{
		BusinessName:      "Adum Farms Ltd",
		ContactPerson:     "Akosua Mensah",
		Email:             "akosua@adumfarms.example.com",
		Phone:             "+233201234567",
		CommodityIDs:      []uint{1},
		DeclarationAgreed: true,
	}
}

func TestApplicationService_Submit(t *testing.T) {
	t.Parallel()

	t.Run("declaration must be agreed", func(t *testing.T) {
		t.Parallel()
		svc := newAppService(noopAppRepo(), noopUserRepo(), noopDocRepo())
		in := validSubmission()
		in.DeclarationAgreed = false
		_, err := svc.Submit(context.Background(), in)
		assertValidationError(t, err)
	})

	t.Run("requires at least one commodity or description", func(t *testing.T) {
		t.Parallel()
		svc := newAppService(noopAppRepo(), noopUserRepo(), noopDocRepo())
		in := validSubmission()
		in.CommodityIDs = nil
		in.OtherCommodities = "   "
		_, err := svc.Submit(context.Background(), in)
		assertValidationError(t, err)
	})

	t.Run("free-text commodities alone are accepted", func(t *testing.T) {
		t.Parallel()
		svc := newAppService(noopAppRepo(), noopUserRepo(), noopDocRepo())
		in := validSubmission()
		in.CommodityIDs = nil
		in.OtherCommodities = "palm oil"
		app, err := svc.Submit(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "palm oil", app.OtherCommodities)
	})

	t.Run("generates tracking code and completion token", func(t *testing.T) {
		t.Parallel()
		appRepo := noopAppRepo()
		var created *models.SupplierApplication
		appRepo.createFn = func(_ context.Context, app *models.SupplierApplication) error {
			created = app
			return nil
		}
		svc := newAppService(appRepo, noopUserRepo(), noopDocRepo())

		app, err := svc.Submit(context.Background(), validSubmission())
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, models.StatusPendingReview, app.Status)
		assert.True(t, strings.HasPrefix(app.TrackingCode, "GCX-SUP-"), "tracking code %q", app.TrackingCode)
		assert.Len(t, strings.TrimPrefix(app.TrackingCode, "GCX-SUP-"), 8)
		assert.NotEmpty(t, app.CompletionToken)
	})

	t.Run("writes a submitted audit entry", func(t *testing.T) {
		t.Parallel()
		auditRepo := noopAuditRepo()
		var entry *models.AuditLog
		auditRepo.createFn = func(_ context.Context, e *models.AuditLog) error {
			entry = e
			return nil
		}
		docSvc := newDocService(noopDocRepo(), noopAppRepo())
		svc := NewApplicationService(noopAppRepo(), noopUserRepo(), noopRefRepo(), auditRepo, docSvc, nil, nil)

		_, err := svc.Submit(context.Background(), validSubmission())
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, models.AuditActionSubmitted, entry.Action)
		assert.Equal(t, string(models.StatusPendingReview), entry.NewStatus)
		assert.Nil(t, entry.ActorUserID)
	})
}

func TestApplicationService_GetForReview(t *testing.T) {
	t.Parallel()

	t.Run("pending application moves to under review", func(t *testing.T) {
		t.Parallel()
		appRepo := noopAppRepo()
		app := &models.SupplierApplication{ID: 5, Status: models.StatusPendingReview}
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) { return app, nil }
		svc := newAppService(appRepo, noopUserRepo(), noopDocRepo())

		got, err := svc.GetForReview(context.Background(), 5, 9)
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnderReview, got.Status)
		require.NotNil(t, got.ReviewedByUserID)
		assert.Equal(t, uint(9), *got.ReviewedByUserID)
		assert.NotNil(t, got.ReviewedAt)
	})

	t.Run("approved application is returned unchanged", func(t *testing.T) {
		t.Parallel()
		appRepo := noopAppRepo()
		app := &models.SupplierApplication{ID: 5, Status: models.StatusApproved}
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) { return app, nil }
		appRepo.updateFn = func(context.Context, *models.SupplierApplication) error {
			t.Fatal("update must not be called")
			return nil
		}
		svc := newAppService(appRepo, noopUserRepo(), noopDocRepo())

		got, err := svc.GetForReview(context.Background(), 5, 9)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
	})
}

func TestApplicationService_Approve(t *testing.T) {
	t.Parallel()

	reviewableApp := func() *models.SupplierApplication {
		return &models.SupplierApplication{
			ID:           5,
			Status:       models.StatusUnderReview,
			TrackingCode: "GCX-SUP-AB12CD34",
			Email:        "akosua@adumfarms.example.com",
		}
	}

	t.Run("rejected application cannot be approved", func(t *testing.T) {
		t.Parallel()
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			return &models.SupplierApplication{ID: 5, Status: models.StatusRejected}, nil
		}
		svc := newAppService(appRepo, noopUserRepo(), noopDocRepo())
		_, err := svc.Approve(context.Background(), 5, 9)
		assertValidationError(t, err)
	})

	t.Run("unverified required documents block approval", func(t *testing.T) {
		t.Parallel()
		docRepo := noopDocRepo()
		docRepo.listActiveRequirementsFn = func(context.Context) ([]models.DocumentRequirement, error) {
			return []models.DocumentRequirement{{ID: 1, Code: "TAX_CLEARANCE", IsRequired: true, IsActive: true}}, nil
		}
		docRepo.listUploadsByApplicationFn = func(context.Context, uint) ([]models.DocumentUpload, error) {
			return []models.DocumentUpload{{RequirementID: 1, Verified: false}}, nil
		}
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			return reviewableApp(), nil
		}
		svc := newAppService(appRepo, noopUserRepo(), docRepo)

		_, err := svc.Approve(context.Background(), 5, 9)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TAX_CLEARANCE")
	})

	t.Run("approval with no required documents succeeds", func(t *testing.T) {
		t.Parallel()
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			return reviewableApp(), nil
		}
		svc := newAppService(appRepo, noopUserRepo(), noopDocRepo())

		app, err := svc.Approve(context.Background(), 5, 9)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, app.Status)
	})

	t.Run("creates supplier account with temporary password", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		var createdUser *models.User
		userRepo.createFn = func(_ context.Context, u *models.User) error {
			u.ID = 42
			createdUser = u
			return nil
		}
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			return reviewableApp(), nil
		}
		svc := newAppService(appRepo, userRepo, noopDocRepo())

		app, err := svc.Approve(context.Background(), 5, 9)
		require.NoError(t, err)
		require.NotNil(t, createdUser)
		assert.Equal(t, "gcx-sup-ab12cd34", createdUser.Username)
		assert.Equal(t, models.RoleSupplier, createdUser.Role)
		assert.True(t, createdUser.MustChangePassword)
		require.NotNil(t, app.UserID)
		assert.Equal(t, uint(42), *app.UserID)
	})

	t.Run("reuses existing account by email", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByEmailFn = func(context.Context, string) (*models.User, error) {
			return &models.User{ID: 77, Email: "akosua@adumfarms.example.com"}, nil
		}
		userRepo.createFn = func(context.Context, *models.User) error {
			t.Fatal("no new account should be created")
			return nil
		}
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			return reviewableApp(), nil
		}
		svc := newAppService(appRepo, userRepo, noopDocRepo())

		app, err := svc.Approve(context.Background(), 5, 9)
		require.NoError(t, err)
		require.NotNil(t, app.UserID)
		assert.Equal(t, uint(77), *app.UserID)
	})
}

func TestApplicationService_Reject(t *testing.T) {
	t.Parallel()

	t.Run("reason is mandatory", func(t *testing.T) {
		t.Parallel()
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			t.Fatal("application must not be loaded when the reason is missing")
			return nil, nil
		}
		svc := newAppService(appRepo, noopUserRepo(), noopDocRepo())
		_, err := svc.Reject(context.Background(), 5, 9, "   ")
		assertValidationError(t, err)
	})

	t.Run("approved application cannot be rejected", func(t *testing.T) {
		t.Parallel()
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			return &models.SupplierApplication{ID: 5, Status: models.StatusApproved}, nil
		}
		svc := newAppService(appRepo, noopUserRepo(), noopDocRepo())
		_, err := svc.Reject(context.Background(), 5, 9, "missing history")
		assertValidationError(t, err)
	})

	t.Run("records reason and audit metadata", func(t *testing.T) {
		t.Parallel()
		auditRepo := noopAuditRepo()
		var entry *models.AuditLog
		auditRepo.createFn = func(_ context.Context, e *models.AuditLog) error {
			entry = e
			return nil
		}
		appRepo := noopAppRepo()
		appRepo.getByIDFn = func(context.Context, uint) (*models.SupplierApplication, error) {
			return &models.SupplierApplication{ID: 5, Status: models.StatusUnderReview}, nil
		}
		docSvc := newDocService(noopDocRepo(), appRepo)
		svc := NewApplicationService(appRepo, noopUserRepo(), noopRefRepo(), auditRepo, docSvc, nil, nil)

		app, err := svc.Reject(context.Background(), 5, 9, "incomplete records")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, app.Status)
		assert.Equal(t, "incomplete records", app.RejectionReason)
		require.NotNil(t, entry)
		assert.Equal(t, models.AuditActionRejected, entry.Action)
		assert.Contains(t, entry.Metadata, "incomplete records")
	})
}

func TestUserService_Authenticate(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("CorrectHorse9!Stap"), bcrypt.DefaultCost)
	require.NoError(t, err)

	t.Run("unknown account and wrong password return the same error", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		svc := NewUserService(userRepo)
		_, errUnknown := svc.Authenticate(context.Background(), "ghost", "whatever")

		userRepo2 := noopUserRepo()
		userRepo2.getByUsernameFn = func(context.Context, string) (*models.User, error) {
			return &models.User{Username: "known", Password: string(hashed)}, nil
		}
		svc2 := NewUserService(userRepo2)
		_, errWrongPw := svc2.Authenticate(context.Background(), "known", "wrong")

		require.Error(t, errUnknown)
		require.Error(t, errWrongPw)
		assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
	})

	t.Run("falls back to email lookup", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByEmailFn = func(context.Context, string) (*models.User, error) {
			return &models.User{ID: 4, Email: "a@b.example.com", Password: string(hashed)}, nil
		}
		svc := NewUserService(userRepo)
		user, err := svc.Authenticate(context.Background(), "a@b.example.com", "CorrectHorse9!Stap")
		require.NoError(t, err)
		assert.Equal(t, uint(4), user.ID)
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("OldPassword1!abc"), bcrypt.DefaultCost)
	require.NoError(t, err)

	t.Run("clears must-change flag", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDFn = func(context.Context, uint) (*models.User, error) {
			return &models.User{ID: 4, Password: string(hashed), MustChangePassword: true}, nil
		}
		var saved *models.User
		userRepo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := NewUserService(userRepo)
		err := svc.ChangePassword(context.Background(), 4, "OldPassword1!abc", "NewPassword2@def")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.False(t, saved.MustChangePassword)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("NewPassword2@def")))
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDFn = func(context.Context, uint) (*models.User, error) {
			return &models.User{ID: 4, Password: string(hashed)}, nil
		}
		svc := NewUserService(userRepo)
		err := svc.ChangePassword(context.Background(), 4, "nope", "NewPassword2@def")
		require.Error(t, err)
	})

	t.Run("rejects weak new password", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDFn = func(context.Context, uint) (*models.User, error) {
			return &models.User{ID: 4, Password: string(hashed)}, nil
		}
		svc := NewUserService(userRepo)
		err := svc.ChangePassword(context.Background(), 4, "OldPassword1!abc", "short")
		assertValidationError(t, err)
	})
}
