package errors

import (
	stderrors "errors"
	"net/http"
)

// Problem is the error envelope written to API clients. It follows the
// RFC 7807 problem-details shape; Type and Instance are optional.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Status   int    `json:"status"`
	Instance string `json:"instance,omitempty"`
}

// NewProblem builds an envelope from its three load-bearing fields.
func NewProblem(title, detail string, status int) Problem {
	return Problem{Title: title, Detail: detail, Status: status}
}

// ToProblem converts an AppError to a problem envelope. The title is the
// HTTP status text of the error's status.
func (e *AppError) ToProblem() Problem {
	status := e.HTTPStatus
	if status == 0 {
		status = StatusFor(e.Code)
	}
	return Problem{
		Title:  http.StatusText(status),
		Detail: e.Message,
		Status: status,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is or wraps an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
