package bootstrap

import (
	"io/fs"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"

	"github.com/kbukum/ecommerce-shared/server/middleware"
)

// Option configures AddSharedServices.
type Option func(*options)

type options struct {
	models          []interface{}
	migrations      fs.FS
	migrationsDir   string
	dialector       gorm.Dialector
	errorOpts       []middleware.ErrorResponseOption
	gracefulTimeout time.Duration
	spanExporter    sdktrace.SpanExporter
	metricReader    sdkmetric.Reader
}

func resolveOptions(opts []Option) *options {
	o := &options{gracefulTimeout: 15 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithModels auto-migrates the given GORM models when the database starts.
func WithModels(models ...interface{}) Option {
	return func(o *options) {
		o.models = append(o.models, models...)
	}
}

// WithMigrations applies the versioned SQL migrations found in dir of fsys
// once the database is connected.
func WithMigrations(fsys fs.FS, dir string) Option {
	return func(o *options) {
		o.migrations = fsys
		o.migrationsDir = dir
	}
}

// WithDialector connects through d instead of the dialector derived from the
// configured driver.
func WithDialector(d gorm.Dialector) Option {
	return func(o *options) {
		o.dialector = d
	}
}

// WithErrorResponseOptions passes options to the error response middleware
// installed by UseSharedPolicies and the HTTP server.
func WithErrorResponseOptions(opts ...middleware.ErrorResponseOption) Option {
	return func(o *options) {
		o.errorOpts = append(o.errorOpts, opts...)
	}
}

// WithGracefulTimeout bounds the shutdown performed by Run.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *options) {
		o.gracefulTimeout = d
	}
}

// WithTelemetryExporters exports telemetry through the given span exporter
// and metric reader instead of OTLP when observability is enabled.
func WithTelemetryExporters(spans sdktrace.SpanExporter, metrics sdkmetric.Reader) Option {
	return func(o *options) {
		o.spanExporter = spans
		o.metricReader = metrics
	}
}
