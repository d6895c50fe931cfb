package repository

import (
	"context"
	"fmt"
	"testing"

	"gcxportal/internal/cache"
	"gcxportal/internal/database"
	"gcxportal/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedApplication(t *testing.T, db *gorm.DB, tracking, token string, status models.ApplicationStatus) *models.SupplierApplication {
	t.Helper()
	app := &models.SupplierApplication{
		BusinessName:       "Asempa Foods Ltd",
		RegistrationNumber: "BN-0001",
		ContactPerson:      "Akosua Mensah",
		Email:              "akosua@example.com",
		TrackingCode:       tracking,
		CompletionToken:    token,
		DeclarationAgreed:  true,
		Status:             status,
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

func TestApplicationRepository_TrackingCodeUnique(t *testing.T) {
	db := newTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	seedApplication(t, db, "GCX-SUP-AAAA0001", "token-1", models.StatusPendingReview)

	dup := &models.SupplierApplication{
		BusinessName:       "Other Ltd",
		RegistrationNumber: "BN-0002",
		ContactPerson:      "Kofi",
		Email:              "kofi@example.com",
		TrackingCode:       "GCX-SUP-AAAA0001",
		CompletionToken:    "token-2",
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestApplicationRepository_Lookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	created := seedApplication(t, db, "GCX-SUP-AAAA0002", "token-abc", models.StatusPendingReview)

	byCode, err := repo.GetByTrackingCode(ctx, "GCX-SUP-AAAA0002")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)

	byToken, err := repo.GetByCompletionToken(ctx, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byToken.ID)

	_, err = repo.GetByTrackingCode(ctx, "GCX-SUP-MISSING0")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestApplicationRepository_ListFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	seedApplication(t, db, "GCX-SUP-AAAA0003", "t3", models.StatusPendingReview)
	seedApplication(t, db, "GCX-SUP-AAAA0004", "t4", models.StatusApproved)
	seedApplication(t, db, "GCX-SUP-AAAA0005", "t5", models.StatusApproved)

	apps, total, err := repo.List(ctx, models.StatusApproved, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, apps, 2)

	apps, total, err = repo.List(ctx, "", 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, apps, 2, "limit applies to the page, not the total")
}

func TestApplicationRepository_TrackingLookupServesMissingDocumentsFromCache(t *testing.T) {
	db := newTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	prev := cache.GetClient()
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(prev) })

	app := seedApplication(t, db, "GCX-SUP-AAAA0007", "t7", models.StatusPendingReview)
	app.SetMissingList([]string{"VAT_CERTIFICATE"})
	require.NoError(t, repo.Update(ctx, app))

	first, err := repo.GetByTrackingCode(ctx, "GCX-SUP-AAAA0007")
	require.NoError(t, err)
	assert.Equal(t, []string{"VAT_CERTIFICATE"}, first.MissingList())
	require.True(t, mr.Exists(cache.KeyTracking("GCX-SUP-AAAA0007")))

	// The cached entry must carry the same public fields as the database row.
	second, err := repo.GetByTrackingCode(ctx, "GCX-SUP-AAAA0007")
	require.NoError(t, err)
	assert.Equal(t, first.MissingList(), second.MissingList())
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TrackingCode, second.TrackingCode)
	assert.Equal(t, first.BusinessName, second.BusinessName)
	assert.Equal(t, first.Status, second.Status)
}

func TestApplicationRepository_MissingListRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	app := seedApplication(t, db, "GCX-SUP-AAAA0006", "t6", models.StatusPendingReview)
	app.SetMissingList([]string{"FDA_CERTIFICATE", "TAX_CLEARANCE"})
	require.NoError(t, repo.Update(ctx, app))

	reloaded, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"FDA_CERTIFICATE", "TAX_CLEARANCE"}, reloaded.MissingList())
}
