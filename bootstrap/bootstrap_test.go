package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/ecommerce-shared/auth/jwt"
	"github.com/kbukum/ecommerce-shared/database"
	apperrors "github.com/kbukum/ecommerce-shared/errors"
)

type product struct {
	ID    int `gorm:"primaryKey"`
	Name  string
	Price float64
}

func testConfig(t *testing.T) *SharedConfig {
	t.Helper()
	return &SharedConfig{
		ConnectionStrings: map[string]string{
			database.DefaultConnectionName: "file::memory:",
		},
		Database: database.Config{
			Driver:       database.DriverSQLite,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			LogLevel:     "silent",
		},
	}
}

func withServiceDefaults(cfg *SharedConfig) *SharedConfig {
	cfg.Name = "orders"
	cfg.Logging.Output = "discard"
	cfg.Logging.DebugOutput = "discard"
	return cfg
}

func newServices(t *testing.T, cfg *SharedConfig, opts ...Option) *Services {
	t.Helper()
	opts = append([]Option{WithDialector(sqlite.Open(":memory:"))}, opts...)
	svc, err := AddSharedServices(t.Context(), cfg, filepath.Join(t.TempDir(), "orders"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc
}

func TestAddSharedServices_NilConfig(t *testing.T) {
	_, err := AddSharedServices(t.Context(), nil, "orders")
	require.Error(t, err)
}

func TestAddSharedServices_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Output = "discard"
	_, err := AddSharedServices(t.Context(), cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation")
}

func TestAddSharedServices_Database(t *testing.T) {
	svc := newServices(t, withServiceDefaults(testConfig(t)), WithModels(&product{}))

	require.NotNil(t, svc.DB)
	assert.True(t, svc.Config.Database.Enabled)
	assert.True(t, svc.DB.GormDB.Migrator().HasTable(&product{}))

	err := svc.DB.Retry(t.Context(), func(tx *gorm.DB) error {
		return tx.Create(&product{Name: "Keyboard", Price: 49.9}).Error
	})
	require.NoError(t, err)

	assert.Nil(t, svc.JWT)
	assert.Nil(t, svc.Server)
}

func TestAddSharedServices_NoDatabase(t *testing.T) {
	cfg := withServiceDefaults(&SharedConfig{})
	svc, err := AddSharedServices(t.Context(), cfg, "")
	require.NoError(t, err)
	defer svc.Close(context.Background())

	assert.Nil(t, svc.DB)
	assert.False(t, cfg.Database.Enabled)
}

func TestAddSharedServices_LogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := withServiceDefaults(testConfig(t))
	svc, err := AddSharedServices(t.Context(), cfg, filepath.Join(dir, "orders"),
		WithDialector(sqlite.Open(":memory:")))
	require.NoError(t, err)

	assert.True(t, cfg.Logging.File.Enabled)
	assert.Equal(t, filepath.Join(dir, "orders"), cfg.Logging.File.Path)

	svc.Exceptions.LogException(errors.New("boom"))
	require.NoError(t, svc.Close(context.Background()))

	matches, err := filepath.Glob(filepath.Join(dir, "orders-*.text"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "boom")
}

func TestAddSharedServices_Migrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/1_create_orders.up.sql":   {Data: []byte("CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL);")},
		"migrations/1_create_orders.down.sql": {Data: []byte("DROP TABLE orders;")},
	}
	svc := newServices(t, withServiceDefaults(testConfig(t)), WithMigrations(fsys, "migrations"))

	assert.True(t, svc.DB.GormDB.Migrator().HasTable("orders"))
}

func TestAddSharedServices_JWT(t *testing.T) {
	cfg := withServiceDefaults(testConfig(t))
	cfg.Authentication = jwt.Config{Key: "0123456789abcdef0123456789abcdef", Issuer: "ecommerce"}
	svc := newServices(t, cfg)
	require.NotNil(t, svc.JWT)

	token, err := svc.JWT.GenerateAccess(&jwt.Claims{Name: "ada", Role: "admin"})
	require.NoError(t, err)

	h := svc.Authenticate("/public")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/catalog", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthenticate_PanicsWithoutKey(t *testing.T) {
	svc := newServices(t, withServiceDefaults(testConfig(t)))
	assert.Panics(t, func() { svc.Authenticate() })
}

func TestUseSharedPolicies(t *testing.T) {
	svc := newServices(t, withServiceDefaults(testConfig(t)))

	h := svc.UseSharedPolicies(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body apperrors.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Status)
	assert.Equal(t, "Warning", body.Title)
	assert.Equal(t, "Too many request made.", body.Detail)
}

func TestAddSharedServices_Server(t *testing.T) {
	cfg := withServiceDefaults(testConfig(t))
	cfg.Server.Enabled = true
	cfg.Server.Host = "127.0.0.1"
	svc := newServices(t, cfg)
	require.NotNil(t, svc.Server)

	svc.Server.GinEngine().GET("/orders/:id", func(c *gin.Context) {
		c.Status(http.StatusForbidden)
	})

	rec := httptest.NewRecorder()
	svc.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/1", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body apperrors.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Out of Access", body.Title)

	rec = httptest.NewRecorder()
	svc.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/liveness", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddSharedServices_Telemetry(t *testing.T) {
	cfg := withServiceDefaults(testConfig(t))
	cfg.Server.Enabled = true
	cfg.Observability.Enabled = true
	spans := tracetest.NewInMemoryExporter()
	svc := newServices(t, cfg, WithTelemetryExporters(spans, sdkmetric.NewManualReader()))
	require.NotNil(t, svc.Telemetry)

	svc.Server.GinEngine().GET("/orders", func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})
	rec := httptest.NewRecorder()
	svc.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	got := spans.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "HTTP GET", got[0].Name)
}

func TestClose_RunsHooksOnce(t *testing.T) {
	svc := newServices(t, withServiceDefaults(testConfig(t)))

	calls := 0
	svc.OnStop(func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, svc.Close(context.Background()))
	require.NoError(t, svc.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestClose_ReturnsHookError(t *testing.T) {
	svc := newServices(t, withServiceDefaults(testConfig(t)))
	var order []string
	svc.OnStop(func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	svc.OnStop(func(context.Context) error {
		order = append(order, "second")
		return errors.New("drain failed")
	})

	err := svc.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drain failed")
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	svc := newServices(t, withServiceDefaults(testConfig(t)))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, svc.Run(ctx))
}
