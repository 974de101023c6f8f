package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmastock/core/internal/application/services"
	"github.com/pharmastock/core/internal/infrastructure/config"
	"github.com/pharmastock/core/internal/infrastructure/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "PharmaStock", Version: "test"},
		Server: config.ServerConfig{
			Port:         8080,
			Host:         "127.0.0.1",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  100,
			RateLimitWindow:    time.Minute,
			RequestTimeout:     5 * time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, initialize bool) (*Server, *services.InventoryService) {
	t.Helper()
	inventory := services.NewInventoryService(nil, logger.NewNop())
	if initialize {
		inventory.Initialize(context.Background())
	}
	srv, err := New(cfg, inventory, logger.NewNop())
	require.NoError(t, err)
	return srv, inventory
}

func do(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), false)

	rec := do(srv, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestReadiness(t *testing.T) {
	srv, inventory := newTestServer(t, testConfig(), false)

	rec := do(srv, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "inventory_not_initialized")

	inventory.Initialize(context.Background())

	rec = do(srv, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)

	inventory.Cleanup(context.Background())

	rec = do(srv, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDetailedHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), true)

	rec := do(srv, http.MethodGet, "/health/detailed")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_medications":3`)
	assert.Contains(t, rec.Body.String(), `"app":"test"`)
}

func TestIndexPage_Headers(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), true)

	rec := do(srv, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Equal(t, contentSecurityPolicy, rec.Header().Get(echo.HeaderContentSecurityPolicy))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, rec.Body.String(), "Online")
}

func TestErrorHandler_JSONMessage(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), true)

	rec := do(srv, http.MethodDelete, "/api/v1/medications/NOPE-1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"medication not found"}`, rec.Body.String())
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), true)

	rec := do(srv, http.MethodGet, "/does-not-exist")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), true)

	require.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/api/v1/medications").Code)

	rec := do(srv, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "pharma_inventory_medications 3")
	assert.Contains(t, body, "pharma_inventory_units 3800")
	assert.Contains(t, body, "pharma_inventory_initialized 1")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/v1/medications",status="200"} 1`)
	assert.Contains(t, body, "http_request_duration_seconds_bucket")
}

func TestMetrics_Uninitialized(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), false)

	rec := do(srv, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pharma_inventory_initialized 0")
	assert.Contains(t, rec.Body.String(), "pharma_inventory_medications 0")
}

func TestMetrics_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	srv, _ := newTestServer(t, cfg, true)

	rec := do(srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitRequests = 2
	srv, _ := newTestServer(t, cfg, true)

	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/health").Code)

	rec := do(srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		splitOrigins(" https://a.example, https://b.example ,"))
}

func TestServer_StartShutdown(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), true)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start("127.0.0.1:0") }()

	require.Eventually(t, func() bool {
		return srv.echo.ListenerAddr() != nil
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.echo.ListenerAddr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 5*time.Second, srv.echo.Server.ReadTimeout)
}
