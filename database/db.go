package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/gorm"

	"github.com/kbukum/ecommerce-shared/logger"
)

// DB wraps a GORM database with logging and transient-failure retry.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger
	cfg    Config
	closed bool
	mu     sync.Mutex

	newBackOff func() backoff.BackOff
}

// New resolves the dialector from cfg.Driver and the configured connection
// string and opens the database. Connecting is retried with exponential
// backoff until cfg.MaxRetries retries are spent or ctx is done.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	dsn, err := cfg.ResolveDSN()
	if err != nil {
		return nil, err
	}
	dialector, err := Dialector(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	return NewWithDialector(ctx, dialector, cfg, log)
}

// NewWithDialector opens the database through an explicit dialector.
func NewWithDialector(ctx context.Context, dialector gorm.Dialector, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	d := &DB{log: log, cfg: cfg}
	d.newBackOff = d.exponentialBackOff
	if err := d.connect(ctx, dialector); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) connect(ctx context.Context, dialector gorm.Dialector) error {
	slowThreshold, _ := time.ParseDuration(d.cfg.SlowQueryThreshold)
	gormCfg := &gorm.Config{
		Logger: newGormLogger(d.log, slowThreshold, parseLogLevel(d.cfg.LogLevel)),
	}

	attempt := 0
	db, err := backoff.Retry(ctx, func() (*gorm.DB, error) {
		attempt++
		db, err := gorm.Open(dialector, gormCfg)
		if err != nil {
			closeQuietly(db)
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return db, nil
	},
		backoff.WithBackOff(d.newBackOff()),
		backoff.WithMaxTries(uint(d.cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			d.log.Warn("Database connection attempt failed, retrying", map[string]interface{}{
				logger.FieldAttempt: attempt,
				logger.FieldError:   err.Error(),
				"backoff":           wait.String(),
			})
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(d.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(d.cfg.MaxIdleConns)
	if lifetime, parseErr := time.ParseDuration(d.cfg.ConnMaxLifetime); parseErr == nil {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	if idleTime, parseErr := time.ParseDuration(d.cfg.ConnMaxIdleTime); parseErr == nil {
		sqlDB.SetConnMaxIdleTime(idleTime)
	}

	d.GormDB = db
	d.log.Info("Database connection established", map[string]interface{}{
		"driver":           dialector.Name(),
		logger.FieldAttempt: attempt,
	})
	return nil
}

// closeQuietly releases the pool of a connection attempt that failed after
// the pool was opened.
func closeQuietly(db *gorm.DB) {
	if db == nil || db.Config == nil || db.ConnPool == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (d *DB) exponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = d.cfg.maxRetryDelay()
	return b
}

// Retry runs op and retries it while it fails with a transient error (see
// IsRetryableError). Any other error is returned at once. With
// RetryOnFailure disabled op runs exactly once.
func (d *DB) Retry(ctx context.Context, op func(tx *gorm.DB) error) error {
	if !d.cfg.RetryEnabled() {
		return op(d.GormDB.WithContext(ctx))
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(d.GormDB.WithContext(ctx))
		if err == nil || IsRetryableError(err) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(d.newBackOff()),
		backoff.WithMaxTries(uint(d.cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			d.log.Warn("Transient database failure, retrying", map[string]interface{}{
				logger.FieldAttempt: attempt,
				logger.FieldError:   err.Error(),
				"backoff":           wait.String(),
			})
		}),
	)
	return err
}

// Close closes the underlying sql.DB connection pool. Safe to call multiple times.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	d.log.Info("Closing database connection")
	d.closed = true
	return sqlDB.Close()
}

// PingContext verifies the database connection is alive, respecting the context.
func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithContext returns a GORM session scoped to the given context.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// AutoMigrate runs GORM auto-migration for the given models.
func (d *DB) AutoMigrate(models ...interface{}) error {
	d.log.Info("Running auto-migration", map[string]interface{}{
		"models": len(models),
	})
	for _, model := range models {
		if err := d.GormDB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

// TransactionFunc defines a function that runs within a transaction.
type TransactionFunc func(tx *gorm.DB) error

// WithTransaction executes fn within a transaction. A panic in fn rolls the
// transaction back and is re-raised.
func (d *DB) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx := d.GormDB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			d.log.Error("Transaction rolled back due to panic", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HealthStatus reports connectivity and pool usage.
type HealthStatus struct {
	Connected  bool          `json:"connected"`
	Error      string        `json:"error,omitempty"`
	Latency    time.Duration `json:"latency"`
	OpenConns  int           `json:"open_connections"`
	InUseConns int           `json:"in_use_connections"`
	IdleConns  int           `json:"idle_connections"`
}

// poolUsage returns the connections in use and the pool limit, 0 when
// unlimited or unknown.
func (d *DB) poolUsage() (inUse, limit int) {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return 0, 0
	}
	stats := sqlDB.Stats()
	return stats.InUse, stats.MaxOpenConnections
}

// CheckHealth pings the database and reports pool statistics.
func (d *DB) CheckHealth(ctx context.Context) HealthStatus {
	start := time.Now()

	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return HealthStatus{Error: err.Error(), Latency: time.Since(start)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return HealthStatus{Error: err.Error(), Latency: time.Since(start)}
	}

	stats := sqlDB.Stats()
	return HealthStatus{
		Connected:  true,
		Latency:    time.Since(start),
		OpenConns:  stats.OpenConnections,
		InUseConns: stats.InUse,
		IdleConns:  stats.Idle,
	}
}
