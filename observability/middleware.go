package observability

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/ecommerce-shared/server/middleware"
)

// Middleware traces each request in a server span and records it in m. It
// must run inside ErrorResponse so failures reported with middleware.Fail
// are visible; panics are recorded and re-raised for ErrorResponse to
// handle. A nil tracer uses the global provider.
func Middleware(tracer trace.Tracer, m *Metrics) middleware.Middleware {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			r = r.WithContext(ctx)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			m.RecordRequestStart(ctx)

			defer func() {
				p := recover()
				err := middleware.Failure(r)
				if p != nil && err == nil {
					err = fmt.Errorf("panic: %v", p)
				}
				outcome := middleware.Classify(rec.status, err)

				span.SetAttributes(
					semconv.HTTPResponseStatusCode(rec.status),
					attribute.String("outcome", outcome.String()),
				)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, outcome.String())
				}
				span.End()
				m.RecordRequestEnd(ctx, r.Method, outcome, time.Since(start))

				if p != nil {
					panic(p)
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// statusRecorder captures the status written by the next stage.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.status = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.wroteHeader = true
	return sr.ResponseWriter.Write(b)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
