package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/ecommerce-shared/auth/jwt"
	"github.com/kbukum/ecommerce-shared/component"
	"github.com/kbukum/ecommerce-shared/database"
	"github.com/kbukum/ecommerce-shared/database/migration"
	"github.com/kbukum/ecommerce-shared/logger"
	"github.com/kbukum/ecommerce-shared/observability"
	"github.com/kbukum/ecommerce-shared/server"
	"github.com/kbukum/ecommerce-shared/server/middleware"
)

// Services holds the infrastructure AddSharedServices wires for a service.
type Services struct {
	Config     *SharedConfig
	Logger     *logger.Logger
	Sinks      *logger.Sinks
	Exceptions *logger.ExceptionLogger
	Components *component.Registry

	// DB is nil when no database is configured.
	DB *database.DB
	// JWT is nil when no authentication key is configured.
	JWT *jwt.Service[*jwt.Claims]
	// Server is nil unless server.enabled is set.
	Server *server.Server
	// Telemetry is nil unless observability.enabled is set.
	Telemetry *observability.Providers

	opts *options

	mu     sync.Mutex
	onStop []Hook
	closed bool
}

// AddSharedServices wires the infrastructure shared by every service:
//   - the logging sinks: console, debug stream and a daily rolling file
//     named "<fileName>-YYYYMMDD.text";
//   - the database component on the eCommerceConnection connection string,
//     retrying transient failures, started before returning;
//   - the JWT bearer scheme built from the authentication section;
//   - OTLP trace and metric export, when observability is enabled;
//   - the HTTP server, when enabled, with the shared policies applied.
//
// The returned Services must be closed with Close.
func AddSharedServices(ctx context.Context, cfg *SharedConfig, fileName string, opts ...Option) (*Services, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	o := resolveOptions(opts)

	if fileName != "" {
		cfg.Logging.File.Enabled = true
		cfg.Logging.File.Path = fileName
	}
	if len(o.models) > 0 {
		cfg.Database.AutoMigrate = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	sinks, err := logger.NewSinks(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log := sinks.Console
	logger.SetGlobalLogger(log)

	s := &Services{
		Config:     cfg,
		Logger:     log,
		Sinks:      sinks,
		Exceptions: sinks.ExceptionLogger(),
		Components: component.NewRegistry(log),
		opts:       o,
	}

	if cfg.Observability.Enabled {
		if err := s.initTelemetry(ctx); err != nil {
			return nil, s.abort(ctx, err)
		}
	}

	dbComp := database.NewComponent(cfg.Database, log).WithAutoMigrate(o.models...)
	if o.dialector != nil {
		dbComp.WithDialector(o.dialector)
	}
	if err := s.Components.Register(dbComp); err != nil {
		return nil, s.abort(ctx, err)
	}
	if err := s.Components.StartAll(ctx); err != nil {
		return nil, s.abort(ctx, err)
	}
	s.DB = dbComp.DB()

	if o.migrations != nil && s.DB != nil {
		if err := s.migrate(); err != nil {
			return nil, s.abort(ctx, err)
		}
	}

	if cfg.AuthenticationEnabled() {
		s.JWT, err = jwt.NewService(cfg.Authentication, func() *jwt.Claims { return &jwt.Claims{} })
		if err != nil {
			return nil, s.abort(ctx, err)
		}
	}

	if cfg.Server.Enabled {
		s.Server = server.New(cfg.Server, log)
		s.Server.ApplyMiddleware(s.Exceptions, o.errorOpts...)
		if s.Telemetry != nil {
			s.Server.Use(observability.Middleware(s.Telemetry.Tracer(cfg.Name), s.Telemetry.Metrics))
		}
		s.Server.RegisterDefaultEndpoints(cfg.Name, s.Components.HealthAll)
		if err := s.Components.Register(server.NewComponent(s.Server)); err != nil {
			return nil, s.abort(ctx, err)
		}
	}

	log.Info("Shared services configured", map[string]interface{}{
		"service":        cfg.Name,
		"environment":    cfg.Environment,
		"database":       s.DB != nil,
		"authentication": s.JWT != nil,
		"server":         s.Server != nil,
		"telemetry":      s.Telemetry != nil,
	})
	return s, nil
}

func (s *Services) initTelemetry(ctx context.Context) error {
	cfg := s.Config
	res := observability.Resource{Service: cfg.Name, Version: cfg.Version, Environment: cfg.Environment}
	if s.opts.spanExporter == nil || s.opts.metricReader == nil {
		p, err := observability.Init(ctx, cfg.Observability, res, s.Logger)
		if err != nil {
			return err
		}
		s.Telemetry = p
		return nil
	}
	p, err := observability.NewProviders(cfg.Observability, res, sdktrace.WithSyncer(s.opts.spanExporter), s.opts.metricReader)
	if err != nil {
		return err
	}
	p.Install()
	s.Telemetry = p
	return nil
}

func (s *Services) migrate() error {
	driverFunc, err := migration.DriverFor(s.Config.Database.Driver)
	if err != nil {
		return err
	}
	if err := migration.Up(s.DB.GormDB, s.opts.migrations, s.opts.migrationsDir, driverFunc); err != nil {
		return err
	}
	version, _, err := migration.Version(s.DB.GormDB, s.opts.migrations, s.opts.migrationsDir, driverFunc)
	if err != nil {
		return err
	}
	s.Logger.Info("Database migrated", map[string]interface{}{"version": version})
	return nil
}

// abort releases what was acquired before a failed AddSharedServices.
func (s *Services) abort(ctx context.Context, cause error) error {
	if err := s.Close(ctx); err != nil {
		s.Logger.Warn("Cleanup after failed startup", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
	return fmt.Errorf("bootstrap: %w", cause)
}

// UseSharedPolicies installs the error response middleware in front of h so
// it runs before all other request handling.
func (s *Services) UseSharedPolicies(h http.Handler) http.Handler {
	opts := append([]middleware.ErrorResponseOption{middleware.WithLogger(s.Logger)}, s.opts.errorOpts...)
	return middleware.ErrorResponse(s.Exceptions, opts...)(h)
}

// Authenticate returns middleware validating bearer tokens with the JWT
// scheme. Requests under skipPaths bypass it. It panics when no
// authentication key is configured.
func (s *Services) Authenticate(skipPaths ...string) middleware.Middleware {
	if s.JWT == nil {
		panic("bootstrap: authentication is not configured")
	}
	return middleware.Auth(middleware.AuthConfig{
		TokenValidator: s.JWT.ValidatorFunc(),
		SkipPaths:      skipPaths,
	})
}

// Run starts the remaining components (the HTTP server) and blocks until
// ctx is done or SIGINT/SIGTERM arrives, then shuts down within the
// graceful timeout.
func (s *Services) Run(ctx context.Context) error {
	if err := s.Components.StartAll(ctx); err != nil {
		return errors.Join(err, s.shutdown())
	}
	s.Logger.Info("Service ready, waiting for shutdown signal")
	s.WaitForSignal(ctx)
	return s.shutdown()
}

func (s *Services) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.gracefulTimeout)
	defer cancel()
	return s.Close(ctx)
}

// WaitForSignal blocks until an interrupt/term signal or ctx is done.
func (s *Services) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		s.Logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		s.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Close runs the OnStop hooks, stops components in reverse order and closes
// the log file. Only the first call has an effect.
func (s *Services) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	hooks := s.onStop
	s.mu.Unlock()

	start := time.Now()
	var errs []error
	if err := runStopHooks(ctx, hooks); err != nil {
		errs = append(errs, err)
	}
	if err := s.Components.StopAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	s.Logger.Info("Shared services stopped", map[string]interface{}{
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	if err := s.Sinks.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}
