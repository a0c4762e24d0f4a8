package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/ecommerce-shared/component"
	apperrors "github.com/kbukum/ecommerce-shared/errors"
	"github.com/kbukum/ecommerce-shared/logger"
	"github.com/kbukum/ecommerce-shared/repository"
	"github.com/kbukum/ecommerce-shared/server/middleware"
)

func newTestServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	cfg := Config{Host: "127.0.0.1", MaxBodySize: "1KB"}
	cfg.ApplyDefaults()
	cfg.Port = 0

	var sink bytes.Buffer
	l := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, &sink, "")
	exc := logger.NewExceptionLogger(l, l, l)

	srv := New(cfg, logger.Nop())
	srv.ApplyMiddleware(exc)

	r := srv.GinEngine()
	r.GET("/api/products", func(c *gin.Context) {
		RespondOK(c, []string{"laptop"})
	})
	r.GET("/api/products/:id", func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("product", c.Param("id")))
	})
	r.GET("/api/orders", func(c *gin.Context) {
		RespondWithError(c, errors.New("DB unreachable"))
	})
	r.GET("/api/panic", func(c *gin.Context) {
		panic("boom")
	})
	r.POST("/api/upload", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
			return
		}
		RespondNoContent(c)
	})
	return srv, &sink
}

func do(h http.Handler, method, target string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_PassThrough(t *testing.T) {
	srv, sink := newTestServer(t)

	rec := do(srv.Handler(), http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":["laptop"]}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
	assert.NotContains(t, sink.String(), "DB unreachable")
}

func TestServer_AppErrorProblem(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv.Handler(), http.MethodGet, "/api/products/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"title":"Not Found","detail":"The requested product was not found.","status":404}`, rec.Body.String())
}

func TestServer_UnhandledErrorEnvelope(t *testing.T) {
	srv, sink := newTestServer(t)

	rec := do(srv.Handler(), http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"title":"Error","detail":"Sorry, internal server error occurred. Kindly","status":500}`, rec.Body.String())
	assert.Equal(t, 3, strings.Count(sink.String(), "DB unreachable"))
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
}

func TestServer_PanicEnvelope(t *testing.T) {
	srv, sink := newTestServer(t)

	rec := do(srv.Handler(), http.MethodGet, "/api/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"title":"Error","detail":"Sorry, internal server error occurred. Kindly","status":500}`, rec.Body.String())
	assert.Contains(t, sink.String(), "boom")
}

func TestServer_BodySizeLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv.Handler(), http.MethodPost, "/api/upload", strings.NewReader(strings.Repeat("x", 2048)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(srv.Handler(), http.MethodPost, "/api/upload", strings.NewReader("small"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(srv.Handler(), http.MethodOptions, "/api/products", nil, "Origin", "https://shop.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_UseRunsInsideErrorResponse(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Use(middleware.Auth(middleware.AuthConfig{
		TokenValidator: func(token string) (map[string]interface{}, error) {
			if token == "good" {
				return map[string]interface{}{"sub": "1"}, nil
			}
			return nil, errors.New("invalid")
		},
		SkipPaths: []string{"/health"},
	}))

	rec := do(srv.Handler(), http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"title":"Alert","detail":"You are not authorized to access.","status":500}`, rec.Body.String())

	rec = do(srv.Handler(), http.MethodGet, "/api/products", nil, "Authorization", "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_DefaultEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	registry := component.NewRegistry(logger.Nop())
	srv.RegisterDefaultEndpoints("orders", registry.HealthAll)

	for _, path := range []string{"/health", "/liveness", "/readiness"} {
		rec := do(srv.Handler(), http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_StartStop(t *testing.T) {
	srv, _ := newTestServer(t)
	comp := NewComponent(srv)

	assert.Equal(t, component.StatusUnhealthy, comp.Health(t.Context()).Status)
	require.NoError(t, comp.Start(t.Context()))
	assert.Equal(t, component.StatusHealthy, comp.Health(t.Context()).Status)
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr())
	assert.Equal(t, "server", comp.Describe().Type)

	resp, err := http.Get("http://" + srv.Addr() + "/api/products")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Error(t, comp.Start(t.Context()), "second start")

	require.NoError(t, comp.Stop(context.Background()))
	h := comp.Health(t.Context())
	assert.Equal(t, component.StatusUnhealthy, h.Status)
	assert.Equal(t, "HTTP server stopped", h.Message)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "10MB", cfg.MaxBodySize)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)

	cfg.Port = 70000
	assert.ErrorContains(t, cfg.Validate(), "server.port")

	cfg.Port = 8080
	cfg.WriteTimeout = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "server.write_timeout")

	cfg.WriteTimeout = 15 * time.Second
	cfg.MaxBodySize = "lots"
	assert.ErrorContains(t, cfg.Validate(), "server.max_body_size")
}

func TestRespondResult(t *testing.T) {
	srv, _ := newTestServer(t)
	r := srv.GinEngine()
	r.POST("/api/carts", func(c *gin.Context) {
		RespondResult(c, http.StatusCreated, repository.Response{Flag: true, Message: "Cart created successfully"}, nil)
	})
	r.DELETE("/api/carts/:id", func(c *gin.Context) {
		RespondResult(c, http.StatusOK, repository.Response{Message: "Cart not found"}, nil)
	})
	r.PUT("/api/carts/:id", func(c *gin.Context) {
		err := apperrors.New(apperrors.ErrCodeInvalidInput, "quantity must be positive", http.StatusBadRequest)
		RespondResult(c, http.StatusOK, repository.Response{Message: "Failed to update Cart"}, err)
	})
	r.PATCH("/api/carts/:id", func(c *gin.Context) {
		RespondResult(c, http.StatusOK, repository.Response{Message: "Failed to update Cart"}, errors.New("deadlock"))
	})

	rec := do(srv.Handler(), http.MethodPost, "/api/carts", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"flag":true,"message":"Cart created successfully"}`, rec.Body.String())

	rec = do(srv.Handler(), http.MethodDelete, "/api/carts/3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"flag":false,"message":"Cart not found"}`, rec.Body.String())

	rec = do(srv.Handler(), http.MethodPut, "/api/carts/3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity must be positive")

	rec = do(srv.Handler(), http.MethodPatch, "/api/carts/3", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"title":"Error","detail":"Sorry, internal server error occurred. Kindly","status":500}`, rec.Body.String())
}

func TestRespondPage(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.GinEngine().GET("/api/catalog", func(c *gin.Context) {
		RespondPage(c, &repository.Paged[string]{
			Data:       []string{"mouse", "keyboard"},
			Pagination: repository.Pagination{Page: 2, PageSize: 2, Total: 5, TotalPages: 3},
		})
	})

	rec := do(srv.Handler(), http.MethodGet, "/api/catalog", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":["mouse","keyboard"],"meta":{"page":2,"pageSize":2,"total":5,"totalPages":3}}`, rec.Body.String())
}
