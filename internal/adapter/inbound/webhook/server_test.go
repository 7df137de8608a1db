package webhook_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonny/sheetbot/internal/adapter/inbound/webhook"
	"github.com/jonny/sheetbot/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/sheetbot/pkg/health"
)

func newTestRoutes(t *testing.T, rateLimit func(http.Handler) http.Handler) (http.Handler, *handlerFixture) {
	t.Helper()
	f := newHandlerFixture(t)
	checker := health.NewChecker("sheetbot", "test")
	srv := webhook.NewServer(webhook.ServerConfig{AllowedOrigins: []string{"*"}, Development: true},
		f.handler, checker.StatusHandler(), rateLimit, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return srv.Routes(), f
}

func TestRoutes_Health(t *testing.T) {
	routes, _ := newTestRoutes(t, nil)

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	routes, _ := newTestRoutes(t, nil)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPut, "/", nil),
		httptest.NewRequest(http.MethodDelete, "/", nil),
		httptest.NewRequest(http.MethodPost, "/interactions", nil),
	} {
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", req.Method, req.URL.Path)
	}
}

func TestRoutes_Options(t *testing.T) {
	routes, _ := newTestRoutes(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://discord.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestRoutes_OptionsWithoutPreflightHeaders(t *testing.T) {
	routes, _ := newTestRoutes(t, nil)

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Signature-Ed25519")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_SignedPost(t *testing.T) {
	routes, f := newTestRoutes(t, nil)

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, f.signedRequest(`{"id":"1","type":1}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":1}`, rec.Body.String())
	// the router-level correlation id reaches the port
	assert.Equal(t, rec.Header().Get(middleware.HeaderCorrelationID), f.port.got[0].Security.CorrelationID)
}

func TestRoutes_RateLimited(t *testing.T) {
	table := middleware.NewRateLimitTable(1, time.Minute, 10)
	routes, f := newTestRoutes(t, middleware.RateLimit(table, middleware.RateLimitOptions{}))

	first := httptest.NewRecorder()
	routes.ServeHTTP(first, f.signedRequest(`{"id":"1","type":1}`))
	second := httptest.NewRecorder()
	routes.ServeHTTP(second, f.signedRequest(`{"id":"2","type":1}`))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.True(t, strings.Contains(second.Body.String(), "Too many requests"))
}
