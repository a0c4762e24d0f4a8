// Package testutil opens throwaway SQLite databases for tests of code built
// on the database and repository packages.
package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"

	"github.com/kbukum/ecommerce-shared/database"
	"github.com/kbukum/ecommerce-shared/logger"
)

// NewDB opens an in-memory SQLite database, migrates models and closes it
// when the test ends. The pool holds a single connection so every query
// sees the same in-memory database.
func NewDB(t testing.TB, models ...interface{}) *database.DB {
	t.Helper()
	cfg := database.Config{
		Enabled:      true,
		Driver:       database.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	}
	db, err := database.NewWithDialector(t.Context(), sqlite.Open(cfg.DSN), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("auto-migrate test database: %v", err)
		}
	}
	return db
}
