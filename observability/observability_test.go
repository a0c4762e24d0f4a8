package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/ecommerce-shared/logger"
	"github.com/kbukum/ecommerce-shared/server/middleware"
)

type harness struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	p      *Providers
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		spans:  tracetest.NewSpanRecorder(),
		reader: sdkmetric.NewManualReader(),
	}
	p, err := NewProviders(Config{}, Resource{Service: "orders", Version: "1.0.0", Environment: "development"},
		sdktrace.WithSpanProcessor(h.spans), h.reader)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	h.p = p
	return h
}

// serve runs next behind ErrorResponse and the tracing middleware.
func (h *harness) serve(next http.Handler) *httptest.ResponseRecorder {
	exc := logger.NewExceptionLogger(nil, nil, nil)
	handler := middleware.Chain(
		middleware.ErrorResponse(exc),
		Middleware(h.p.Tracer("test"), h.p.Metrics),
	)(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/7", nil))
	return rec
}

func (h *harness) onlySpan(t *testing.T) sdktrace.ReadOnlySpan {
	t.Helper()
	ended := h.spans.Ended()
	require.Len(t, ended, 1)
	return ended[0]
}

func attr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func (h *harness) counter(t *testing.T, name string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	byOutcome := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				byOutcome[outcome.AsString()] += dp.Value
			}
		}
	}
	return byOutcome
}

func TestMiddleware_Success(t *testing.T) {
	h := newHarness(t)
	rec := h.serve(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	span := h.onlySpan(t)
	assert.Equal(t, "HTTP GET", span.Name())
	assert.Equal(t, "Success", attr(span, "outcome").AsString())
	assert.Equal(t, int64(http.StatusCreated), attr(span, "http.response.status_code").AsInt64())
	assert.Equal(t, "/orders/7", attr(span, "url.path").AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)

	assert.Equal(t, map[string]int64{"Success": 1}, h.counter(t, "http.server.request.total"))
}

func TestMiddleware_ReportedFailure(t *testing.T) {
	h := newHarness(t)
	rec := h.serve(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		middleware.Fail(r, errors.New("database unreachable"))
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	span := h.onlySpan(t)
	assert.Equal(t, "UnhandledError", attr(span, "outcome").AsString())
	assert.Equal(t, codes.Error, span.Status().Code)
	require.NotEmpty(t, span.Events())
	assert.Equal(t, map[string]int64{"UnhandledError": 1}, h.counter(t, "http.server.failure.total"))
}

func TestMiddleware_PanicIsReraised(t *testing.T) {
	h := newHarness(t)
	rec := h.serve(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil basket")
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	span := h.onlySpan(t)
	assert.Equal(t, "UnhandledError", attr(span, "outcome").AsString())
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestMiddleware_Timeout(t *testing.T) {
	h := newHarness(t)
	rec := h.serve(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		middleware.Fail(r, context.DeadlineExceeded)
	}))

	assert.Equal(t, http.StatusRequestTimeout, rec.Code)
	assert.Equal(t, "Timeout", attr(h.onlySpan(t), "outcome").AsString())
}

func TestMiddleware_FlaggedStatus(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 2; i++ {
		h.serve(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
	}

	assert.Equal(t, map[string]int64{"RateLimited": 2}, h.counter(t, "http.server.request.total"))
	assert.Empty(t, h.counter(t, "http.server.failure.total"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequestStart(context.Background())
	m.RecordRequestEnd(context.Background(), http.MethodGet, middleware.Success, 0)
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.NoError(t, cfg.Validate())

	cfg.Enabled = true
	cfg.SampleRate = 1.5
	assert.Error(t, cfg.Validate())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestProviders_ShutdownNil(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}
