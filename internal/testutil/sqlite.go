// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"padelcentar/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewSQLiteDB returns a migrated, isolated in-memory sqlite database that
// is closed when the test finishes.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := database.Open(database.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
