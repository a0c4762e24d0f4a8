package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ecommerce-shared/errors"
	"github.com/kbukum/ecommerce-shared/logger"
)

// ErrorResponseOption configures ErrorResponse.
type ErrorResponseOption func(*errorResponseOptions)

type errorResponseOptions struct {
	fixUnauthorized bool
	log             *logger.Logger
}

// WithUnauthorizedStatusFix makes the Unauthorized envelope carry status 401
// instead of the default 500.
func WithUnauthorizedStatusFix() ErrorResponseOption {
	return func(o *errorResponseOptions) { o.fixUnauthorized = true }
}

// WithLogger sets the logger that records envelope write failures and
// failures reported after the response was already streamed.
func WithLogger(l *logger.Logger) ErrorResponseOption {
	return func(o *errorResponseOptions) { o.log = l }
}

// ErrorResponse returns middleware that turns failures and flagged statuses
// of the next stage into a JSON problem envelope.
//
// The next stage is served into a buffer. Afterwards:
//   - a panic or a failure reported with Fail is logged through exc and
//     answered with 408 (cancellation or timeout) or 500
//   - a 429, 401 or 403 status is answered with the matching envelope
//   - anything else is passed through unchanged
//
// Once the next stage flushes, its response is committed and a later failure
// is only logged.
func ErrorResponse(exc *logger.ExceptionLogger, opts ...ErrorResponseOption) Middleware {
	o := errorResponseOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slot := &failureSlot{}
			r = r.WithContext(context.WithValue(r.Context(), failureKey{}, slot))
			bw := newBufferedWriter(w)

			aborted := serveRecovering(next, bw, r, slot)

			err := slot.get()
			if err != nil {
				exc.LogException(err)
			}
			if aborted {
				panic(http.ErrAbortHandler)
			}
			if bw.hijacked {
				return
			}

			outcome := Classify(bw.Status(), err)
			if outcome == Success || bw.Committed() {
				if outcome != Success {
					o.log.Warn("response already committed, envelope not written", map[string]interface{}{
						logger.FieldOutcome: outcome.String(),
					})
				}
				if cerr := bw.commit(); cerr != nil {
					o.log.Debug("response write failed", map[string]interface{}{logger.FieldError: cerr.Error()})
				}
				return
			}

			bw.reset()
			p := Envelope(outcome, o.fixUnauthorized)
			if werr := writeProblem(bw, responseStatus(outcome, p), p); werr != nil {
				o.log.Debug("envelope encode failed", map[string]interface{}{logger.FieldError: werr.Error()})
			}
			if cerr := bw.commit(); cerr != nil {
				o.log.Debug("envelope write failed", map[string]interface{}{logger.FieldError: cerr.Error()})
			}
		})
	}
}

// serveRecovering serves next and records a panic as a failure. It reports
// whether the handler aborted with http.ErrAbortHandler.
func serveRecovering(next http.Handler, w http.ResponseWriter, r *http.Request, slot *failureSlot) (aborted bool) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			aborted = true
			slot.set(http.ErrAbortHandler)
			return
		}
		slot.set(panicError(rec))
	}()
	next.ServeHTTP(w, r)
	return false
}

func panicError(rec interface{}) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}

// writeProblem writes p as the JSON body with the given status line.
func writeProblem(w http.ResponseWriter, status int, p errors.Problem) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

type failureKey struct{}

// failureSlot holds the first failure reported for a request. Handlers may
// report from their own goroutines.
type failureSlot struct {
	mu  sync.Mutex
	err error
}

func (s *failureSlot) set(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *failureSlot) get() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Fail reports err as the failure of the request r. It returns false when r
// is not served behind ErrorResponse or err is nil.
func Fail(r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	slot, ok := r.Context().Value(failureKey{}).(*failureSlot)
	if !ok {
		return false
	}
	slot.set(err)
	return true
}

// Failure returns the failure reported so far for r, or nil.
func Failure(r *http.Request) error {
	slot, ok := r.Context().Value(failureKey{}).(*failureSlot)
	if !ok {
		return nil
	}
	return slot.get()
}

// HandlerFunc is an http.Handler that returns its failure instead of
// writing it. The failure is handed to the enclosing ErrorResponse; without
// one the 500 envelope is written directly.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

func (f HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil || Fail(r, err) {
		return
	}
	o := Classify(0, err)
	p := Envelope(o, false)
	_ = writeProblem(w, responseStatus(o, p), p)
}

// GinErrors reports the last error attached to the gin context as the
// request failure once the remaining handlers have run.
func GinErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if last := c.Errors.Last(); last != nil && last.Err != nil {
			Fail(c.Request, last.Err)
		}
	}
}
