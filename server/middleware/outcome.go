package middleware

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"

	"github.com/kbukum/ecommerce-shared/errors"
)

// Outcome is the classification of a finished request.
type Outcome int

const (
	Success Outcome = iota
	RateLimited
	Unauthorized
	Forbidden
	Timeout
	UnhandledError
)

var outcomeNames = [...]string{
	Success:        "Success",
	RateLimited:    "RateLimited",
	Unauthorized:   "Unauthorized",
	Forbidden:      "Forbidden",
	Timeout:        "Timeout",
	UnhandledError: "UnhandledError",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "Unknown"
	}
	return outcomeNames[o]
}

// Classify decides the outcome of a request from the status written by the
// next stage and the failure it reported, if any. A failure always wins over
// the status.
func Classify(status int, err error) Outcome {
	if err != nil {
		if IsTimeout(err) {
			return Timeout
		}
		return UnhandledError
	}
	switch status {
	case http.StatusTooManyRequests:
		return RateLimited
	case http.StatusUnauthorized:
		return Unauthorized
	case http.StatusForbidden:
		return Forbidden
	}
	return Success
}

// IsTimeout reports whether err is a cancellation or timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.HasCode(err, errors.ErrCodeTimeout)
}

// Envelope returns the problem envelope written for o. The Unauthorized
// envelope carries status 500 unless fixUnauthorized is set.
func Envelope(o Outcome, fixUnauthorized bool) errors.Problem {
	switch o {
	case RateLimited:
		return errors.NewProblem("Warning", "Too many request made.", http.StatusTooManyRequests)
	case Unauthorized:
		status := http.StatusInternalServerError
		if fixUnauthorized {
			status = http.StatusUnauthorized
		}
		return errors.NewProblem("Alert", "You are not authorized to access.", status)
	case Forbidden:
		return errors.NewProblem("Out of Access", "You are not allowed/required to access.", http.StatusForbidden)
	case Timeout:
		return errors.NewProblem("Out of time", "Request timeout... try again later", http.StatusRequestTimeout)
	case UnhandledError:
		return errors.NewProblem("Error", "Sorry, internal server error occurred. Kindly", http.StatusInternalServerError)
	}
	return errors.Problem{}
}

// responseStatus is the HTTP status line sent for o. Unauthorized keeps the
// 401 the next stage wrote.
func responseStatus(o Outcome, p errors.Problem) int {
	if o == Unauthorized {
		return http.StatusUnauthorized
	}
	return p.Status
}
