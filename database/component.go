package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kbukum/ecommerce-shared/component"
	"github.com/kbukum/ecommerce-shared/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs the connection pool under a component.Registry: Start
// connects with the configured retry policy, Stop closes the pool. A
// disabled configuration makes every call a no-op.
type Component struct {
	cfg       Config
	log       *logger.Logger
	dialector gorm.Dialector
	models    []interface{}
	db        *DB
}

// NewComponent returns a component for cfg. Defaults are applied here.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{cfg: cfg, log: log.WithComponent("database")}
}

// WithAutoMigrate adds models to migrate on Start when auto_migrate is set.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithDialector replaces the dialector the driver setting would select,
// e.g. SQLite in tests of a SQL Server service.
func (c *Component) WithDialector(d gorm.Dialector) *Component {
	c.dialector = d
	return c
}

// DB is nil until Start succeeds.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("Database disabled, no connection string configured")
		return nil
	}

	open := func() (*DB, error) { return New(ctx, c.cfg, c.log) }
	if c.dialector != nil {
		open = func() (*DB, error) { return NewWithDialector(ctx, c.dialector, c.cfg, c.log) }
	}
	db, err := open()
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}

	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}
	c.db = db
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database. A pool with every connection in use reports
// degraded without pinging, since the ping would queue behind the requests.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.cfg.Enabled:
		h.Message = "disabled"
		return h
	case c.db == nil:
		h.Status, h.Message = component.StatusUnhealthy, "database not initialized"
		return h
	}

	if inUse, limit := c.db.poolUsage(); limit > 0 && inUse >= limit {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("pool exhausted: %d/%d in use", inUse, limit)
		return h
	}
	st := c.db.CheckHealth(ctx)
	h.LatencyMs = st.Latency.Milliseconds()
	if !st.Connected {
		h.Status, h.Message = component.StatusUnhealthy, "ping failed: "+st.Error
	}
	return h
}

// Describe summarizes driver, connection name, pool size and retry policy.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s %s pool=%d/%d", c.cfg.Driver, c.cfg.ConnectionName, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.RetryEnabled() {
		details += fmt.Sprintf(" retries=%d", c.cfg.MaxRetries)
	}
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{Name: "Database", Type: "database", Details: details}
}
