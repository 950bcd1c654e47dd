// Package testutil provides database and HTTP helpers for tests
package testutil

import (
	"testing"

	"github.com/KOMKZ/go-yogan-quota/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory database.
// One connection only: every :memory: connection is a separate database,
// and concurrent transactions serialize on it.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// DBHelper database assertions and seeding
type DBHelper struct {
	DB *gorm.DB
	t  testing.TB
}

// NewDBHelper wraps db
func NewDBHelper(t testing.TB, db *gorm.DB) *DBHelper {
	return &DBHelper{DB: db, t: t}
}

// Seed inserts data, failing the test on error
func (h *DBHelper) Seed(data interface{}) {
	h.t.Helper()
	require.NoError(h.t, h.DB.Create(data).Error)
}

// CountWhere counts rows of model matching where
func (h *DBHelper) CountWhere(m interface{}, where string, args ...interface{}) int64 {
	h.t.Helper()
	var count int64
	require.NoError(h.t, h.DB.Model(m).Where(where, args...).Count(&count).Error)
	return count
}

// Exists reports whether a row of model with id exists
func (h *DBHelper) Exists(m interface{}, id uint64) bool {
	h.t.Helper()
	return h.CountWhere(m, "id = ?", id) > 0
}
