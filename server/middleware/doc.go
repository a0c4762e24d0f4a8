// Package middleware provides the net/http middleware shared by the
// e-commerce services.
//
// ErrorResponse is meant to be the outermost layer. It buffers the response of
// the stages behind it and replaces it with a JSON problem envelope when a
// stage fails or ends with 429, 401 or 403:
//
//	h := middleware.Chain(
//		middleware.ErrorResponse(sinks.ExceptionLogger()),
//		middleware.RequestID(),
//		middleware.Auth(authCfg),
//	)(mux)
//
// Handlers report failures by panicking, by returning them from a
// HandlerFunc, by calling Fail, or, on a Gin engine, through c.Error together
// with GinErrors.
package middleware
