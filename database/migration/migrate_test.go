package migration

import (
	"errors"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/ecommerce-shared/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func sqliteDriver(t *testing.T) DriverFunc {
	t.Helper()
	fn, err := DriverFor("sqlite")
	require.NoError(t, err)
	return fn
}

func TestDriverFor(t *testing.T) {
	for _, name := range []string{"sqlserver", "postgres", "sqlite", "SQLite"} {
		fn, err := DriverFor(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn, name)
	}
	_, err := DriverFor("oracle")
	assert.ErrorContains(t, err, `"oracle"`)
}

func TestUpDownVersion(t *testing.T) {
	db := openSQLite(t)
	fsys := os.DirFS("testdata")
	driver := sqliteDriver(t)

	v, dirty, err := Version(db, fsys, "migrations", driver)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	require.NoError(t, Up(db, fsys, "migrations", driver))
	assert.True(t, db.Migrator().HasTable("products"))
	assert.True(t, db.Migrator().HasTable("orders"))

	v, dirty, err = Version(db, fsys, "migrations", driver)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)

	// nothing left to apply
	require.NoError(t, Up(db, fsys, "migrations", driver))

	require.NoError(t, Steps(db, fsys, "migrations", -1, driver))
	assert.False(t, db.Migrator().HasTable("orders"))
	assert.True(t, db.Migrator().HasTable("products"))

	require.NoError(t, Down(db, fsys, "migrations", driver))
	assert.False(t, db.Migrator().HasTable("products"))
}

func TestUpMissingDirectory(t *testing.T) {
	db := openSQLite(t)
	err := Up(db, fstest.MapFS{}, "migrations", sqliteDriver(t))
	assert.ErrorContains(t, err, "create iofs source")
}

type product struct {
	ID    uint
	Name  string
	SKU   string `gorm:"index:idx_products_sku"`
	Stock int
}

type stocklessProduct struct {
	ID   uint
	Name string
}

func (stocklessProduct) TableName() string { return "products" }

func TestRunnerAppliesOnce(t *testing.T) {
	db := openSQLite(t)
	calls := 0

	newRunner := func() *Runner {
		return NewRunner(db, logger.Nop()).Add(
			Migration{
				ID:          "0001_products",
				Description: "create products",
				Up: func(tx *gorm.DB) error {
					calls++
					return tx.Migrator().CreateTable(&product{})
				},
			},
			Migration{
				ID:          "0002_products_sku_index",
				Description: "index products by sku",
				Up: func(tx *gorm.DB) error {
					calls++
					if err := CreateIndexIfNotExists(tx, &product{}, "idx_products_sku"); err != nil {
						return err
					}
					return CreateIndexIfNotExists(tx, &product{}, "idx_products_sku")
				},
			},
		)
	}

	n, err := newRunner().Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasIndex(&product{}, "idx_products_sku"))

	n, err = newRunner().Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, calls)
}

func TestRunnerStopsOnFailure(t *testing.T) {
	db := openSQLite(t)
	boom := errors.New("boom")

	n, err := NewRunner(db, logger.Nop()).Add(
		Migration{ID: "0001_ok", Up: func(tx *gorm.DB) error { return nil }},
		Migration{ID: "0002_fail", Up: func(tx *gorm.DB) error { return boom }},
		Migration{ID: "0003_never", Up: func(tx *gorm.DB) error { t.Fatal("must not run"); return nil }},
	).Run(t.Context())

	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "0002_fail")
	assert.Equal(t, 1, n)

	var count int64
	require.NoError(t, db.Model(&appliedMigration{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddColumnIfNotExists(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.Migrator().CreateTable(&stocklessProduct{}))

	require.NoError(t, AddColumnIfNotExists(db, &product{}, "Stock"))
	require.NoError(t, AddColumnIfNotExists(db, &product{}, "Stock"))
	assert.True(t, db.Migrator().HasColumn(&product{}, "Stock"))
}
