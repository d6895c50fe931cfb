package database

import (
	"fmt"
	"testing"

	"gcxportal/internal/models"
	"gcxportal/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestInstrumentQueries_RecordsLatencyByOperation(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, InstrumentQueries(db))
	before := testutil.CollectAndCount(observability.DatabaseQueryLatency)

	require.NoError(t, db.Create(&models.Region{Name: "Ashanti"}).Error)
	var region models.Region
	require.NoError(t, db.First(&region, "name = ?", "Ashanti").Error)

	after := testutil.CollectAndCount(observability.DatabaseQueryLatency)
	assert.Greater(t, after, before, "create and select queries must both be observed")
}
