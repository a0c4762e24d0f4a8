package migration

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/ecommerce-shared/logger"
)

// Migration describes a single GORM-based schema migration.
type Migration struct {
	ID          string
	Description string
	Up          func(*gorm.DB) error
}

// appliedMigration records a Migration applied by a Runner.
type appliedMigration struct {
	ID        string `gorm:"primaryKey;size:255"`
	AppliedAt time.Time
}

func (appliedMigration) TableName() string { return "gorm_migrations" }

// Runner applies GORM-based migrations in order, each inside its own
// transaction, and records them so they run once.
type Runner struct {
	db         *gorm.DB
	log        *logger.Logger
	migrations []Migration
}

// NewRunner creates a runner bound to the given database and logger.
func NewRunner(db *gorm.DB, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Runner{db: db, log: log.WithComponent("migration")}
}

// Add registers migrations to be applied.
func (r *Runner) Add(migrations ...Migration) *Runner {
	r.migrations = append(r.migrations, migrations...)
	return r
}

// Run applies all pending migrations in registration order and returns the
// number applied.
func (r *Runner) Run(ctx context.Context) (int, error) {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&appliedMigration{}); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, m := range r.migrations {
		var count int64
		if err := db.Model(&appliedMigration{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			r.log.Debug("Migration already applied", map[string]interface{}{"id": m.ID})
			continue
		}

		r.log.Info("Applying migration", map[string]interface{}{
			"id":          m.ID,
			"description": m.Description,
		})
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&appliedMigration{ID: m.ID, AppliedAt: time.Now().UTC()}).Error
		}); err != nil {
			return applied, fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		applied++
	}
	return applied, nil
}

// CreateIndexIfNotExists creates the index declared on model's struct tags
// unless it already exists.
func CreateIndexIfNotExists(tx *gorm.DB, model interface{}, index string) error {
	if tx.Migrator().HasIndex(model, index) {
		return nil
	}
	return tx.Migrator().CreateIndex(model, index)
}

// AddColumnIfNotExists adds the column of model's field unless it exists.
func AddColumnIfNotExists(tx *gorm.DB, model interface{}, field string) error {
	if tx.Migrator().HasColumn(model, field) {
		return nil
	}
	return tx.Migrator().AddColumn(model, field)
}
