package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware decorates an http.Handler. The same type serves the server
// level chain, which wraps the whole Gin engine, and any plain handler
// mounted next to it.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares into one. The first one is outermost: it sees
// the request first and the response last. Nil entries are skipped so
// optional stages can be passed unconditionally.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] != nil {
				h = middlewares[i](h)
			}
		}
		return h
	}
}

// GinWrap runs a Middleware as a gin handler on a route group. The rest of
// the gin chain runs as its inner handler, with any request it rewrote.
//
// ErrorResponse and RequestLogger swap the ResponseWriter, which gin's own
// writer does not honour; install those with Server.ApplyMiddleware.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(inner).ServeHTTP(c.Writer, c.Request)
		if !called {
			// The middleware answered itself; the rest of the chain must not run.
			c.Abort()
		}
	}
}
