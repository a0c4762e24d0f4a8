package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/ecommerce-shared/logger"
	"github.com/kbukum/ecommerce-shared/server/endpoint"
	"github.com/kbukum/ecommerce-shared/server/middleware"
)

// Server is an HTTP server backed by Gin. Additional http.Handler mounts share
// the port through the root ServeMux, and the whole mux sits behind the
// middleware chain and h2c.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger

	mu       sync.RWMutex
	standard []middleware.Middleware
	extra    []middleware.Middleware
	handler  http.Handler
	listener net.Listener
	serveErr error
	stopped  bool
}

// New creates a Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if log.GetLogger().GetLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.GinErrors())

	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine:  engine,
		mux:     mux,
		config:  cfg,
		log:     log.WithComponent("server"),
		handler: mux,
	}

	h2s := &http2.Server{
		MaxConcurrentStreams: cfg.MaxConcurrentStreams,
		IdleTimeout:          cfg.IdleTimeout,
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           h2c.NewHandler(http.HandlerFunc(s.serveHTTP), h2s),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

// Handler returns the root handler: the middleware chain around the mux.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// ApplyMiddleware installs the standard chain, outermost first: the error
// response middleware, request id, request logging, CORS and the body size
// limit. Middleware added with Use runs inside it.
func (s *Server) ApplyMiddleware(exc *logger.ExceptionLogger, opts ...middleware.ErrorResponseOption) {
	opts = append([]middleware.ErrorResponseOption{middleware.WithLogger(s.log)}, opts...)
	standard := []middleware.Middleware{
		middleware.ErrorResponse(exc, opts...),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.standard = standard
	s.rebuild()
}

// Use appends middleware that runs inside the standard chain, e.g.
// middleware.Auth or middleware.RateLimit, whose bare status codes the
// error response middleware then rewrites.
func (s *Server) Use(mws ...middleware.Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extra = append(s.extra, mws...)
	s.rebuild()
}

func (s *Server) rebuild() {
	all := make([]middleware.Middleware, 0, len(s.standard)+len(s.extra))
	all = append(all, s.standard...)
	all = append(all, s.extra...)
	s.handler = middleware.Chain(all...)(s.mux)
}

// RegisterDefaultEndpoints registers /health, /liveness and /readiness.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/liveness", endpoint.Liveness(serviceName))
	s.engine.GET("/readiness", endpoint.Readiness(serviceName, checker))
}

// Start binds the port and begins serving. It returns once the listener is
// bound; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server already started on %s", s.listener.Addr())
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener
	s.stopped = false
	s.serveErr = nil

	go s.serve(listener)

	s.log.Info("HTTP server started", logger.Fields(
		"addr", listener.Addr().String(),
		"h2c", true,
		"max_body_size", s.config.MaxBodySize,
	))
	return nil
}

func (s *Server) serve(l net.Listener) {
	err := s.httpServer.Serve(l)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}
	s.log.Error("HTTP server stopped serving", logger.ErrorFields("serve", err))
	s.mu.Lock()
	s.serveErr = err
	s.mu.Unlock()
}

// Stop drains in-flight requests, waiting at most 5 seconds or until ctx
// ends, whichever comes first.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	begin := time.Now()
	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	if err != nil {
		s.log.Error("HTTP server shutdown incomplete", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped", logger.Fields(logger.FieldDuration, time.Since(begin).Milliseconds()))
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// state reports whether the server is accepting connections, and why not.
func (s *Server) state() (serving bool, reason string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.listener == nil:
		return false, "HTTP server not started"
	case s.stopped:
		return false, "HTTP server stopped"
	case s.serveErr != nil:
		return false, s.serveErr.Error()
	}
	return true, ""
}
