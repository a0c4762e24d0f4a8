// Package migration applies schema migrations to the database opened by the
// database package. Versioned SQL files are run with golang-migrate from any
// fs.FS (usually an embed.FS); Runner applies programmatic GORM migrations.
//
//	//go:embed migrations/*.sql
//	var migrationsFS embed.FS
//
//	driverFunc, err := migration.DriverFor(cfg.Driver)
//	err = migration.Up(db.GormDB, migrationsFS, "migrations", driverFunc)
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	migratemssql "github.com/golang-migrate/migrate/v4/database/sqlserver"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// DriverFunc creates a migrate database driver from sql.DB.
type DriverFunc func(*sql.DB) (database.Driver, error)

// DriverFor returns the DriverFunc matching a database driver name
// (sqlserver, postgres or sqlite).
func DriverFor(driver string) (DriverFunc, error) {
	switch strings.ToLower(driver) {
	case "sqlserver":
		return func(db *sql.DB) (database.Driver, error) {
			return migratemssql.WithInstance(db, &migratemssql.Config{})
		}, nil
	case "postgres":
		return func(db *sql.DB) (database.Driver, error) {
			return migratepg.WithInstance(db, &migratepg.Config{})
		}, nil
	case "sqlite":
		return func(db *sql.DB) (database.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		}, nil
	}
	return nil, fmt.Errorf("no migration driver for %q", driver)
}

// Up runs all pending versioned migrations found in dir of fsys.
// Migration files follow the pattern VERSION_name.up.sql / VERSION_name.down.sql.
// Having nothing to apply is not an error.
func Up(gormDB *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, fsys, dir, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back all versioned migrations.
func Down(gormDB *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, fsys, dir, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Steps applies n migrations; a negative n rolls back -n migrations.
func Steps(gormDB *gorm.DB, fsys fs.FS, dir string, n int, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, fsys, dir, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty flag. A database
// without migrations reports version 0.
func Version(gormDB *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) (version uint, dirty bool, err error) {
	m, err := newMigrator(gormDB, fsys, dir, driverFunc)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrator creates a golang-migrate instance reading from fsys.
// Callers must not call m.Close(): it would close the shared sql.DB.
func newMigrator(gormDB *gorm.DB, fsys fs.FS, dir string, driverFunc DriverFunc) (*migrate.Migrate, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	driver, err := driverFunc(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}

	source, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "database", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
