package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/ecommerce-shared/logger"
)

// Probe paths hit by orchestrators every few seconds. They are not logged.
var probePaths = []string{"/health", "/liveness", "/readiness", "/metrics"}

// RequestLogger logs one line per request with its method, path, status,
// outcome, response size and duration. The level follows the status: 5xx
// and reported failures log as errors, 4xx as warnings, the rest at debug.
//
// Placed inside ErrorResponse it sees the status written by the handler,
// before any envelope rewrite, together with the failure the handler
// reported through Fail.
func RequestLogger(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			failure := Failure(r)
			outcome := Classify(sw.status, failure)
			fields := logger.Fields(
				logger.FieldMethod, r.Method,
				logger.FieldPath, r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldOutcome, outcome.String(),
				"bytes", sw.written,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if failure != nil {
				fields[logger.FieldError] = failure.Error()
			}

			l := log.WithContext(r.Context())
			switch {
			case failure != nil || sw.status >= http.StatusInternalServerError:
				l.Error("Request completed", fields)
			case sw.status >= http.StatusBadRequest:
				l.Warn("Request completed", fields)
			default:
				l.Debug("Request completed", fields)
			}
		})
	}
}

// isProbe matches the probe paths at the root or under an /api prefix,
// e.g. /api/v1/health.
func isProbe(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, p := range probePaths {
		if path == p || (strings.HasPrefix(path, "/api/") && strings.HasSuffix(path, p)) {
			return true
		}
	}
	return false
}
