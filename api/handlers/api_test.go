package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/queue-tracker-api/api"
	"github.com/linesmerrill/queue-tracker-api/config"
	mocksdb "github.com/linesmerrill/queue-tracker-api/databases/mocks"
)

func newTestApp(t *testing.T, conf config.Config) *App {
	t.Helper()
	a := &App{Config: conf, dbHelper: &mocksdb.DatabaseHelper{}}
	a.initializeRoutes()
	t.Cleanup(a.relay.Close)
	return a
}

func testConfig() config.Config {
	return config.Config{
		FrontendURL:           "https://roster.example.com",
		HTTPRateLimitWindow:   15 * time.Minute,
		HTTPRateLimitMax:      100,
		SocketRateLimitWindow: time.Second,
		SocketRateLimitMax:    20,
		MaxMessageSize:        1 << 20,
		JWTSecret:             "test-secret",
	}
}

func executeRequest(a *App, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp(t, testConfig())
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestRootRoute(t *testing.T) {
	a := newTestApp(t, testConfig())
	req, _ := http.NewRequest("GET", "/", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)
	assert.Equal(t, "Queue Tracker API is Live!", response.Body.String())
}

func TestHealthCheckRoute(t *testing.T) {
	a := newTestApp(t, testConfig())
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(a, req)

	checkResponseCode(t, http.StatusOK, response.Code)
	assert.JSONEq(t, `{"alive": true}`, response.Body.String())
	assert.NotEmpty(t, response.Header().Get(api.RequestIDHeader))
}

func TestHTTPRateLimit(t *testing.T) {
	conf := testConfig()
	conf.HTTPRateLimitMax = 2
	a := newTestApp(t, conf)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/health", nil)
		checkResponseCode(t, http.StatusOK, executeRequest(a, req).Code)
	}
	req, _ := http.NewRequest("GET", "/health", nil)
	checkResponseCode(t, http.StatusTooManyRequests, executeRequest(a, req).Code)

	req, _ = http.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	checkResponseCode(t, http.StatusOK, executeRequest(a, req).Code)
}

func TestCORSPreflight(t *testing.T) {
	a := newTestApp(t, testConfig())

	req, _ := http.NewRequest("OPTIONS", "/download-all-logs", nil)
	req.Header.Set("Origin", "https://roster.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	response := executeRequest(a, req)
	assert.Equal(t, "https://roster.example.com", response.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", response.Header().Get("Access-Control-Allow-Credentials"))

	req, _ = http.NewRequest("OPTIONS", "/download-all-logs", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	response = executeRequest(a, req)
	assert.Empty(t, response.Header().Get("Access-Control-Allow-Origin"))
}

func TestDownloadLogsRequiresAdminWhenEnforced(t *testing.T) {
	conf := testConfig()
	conf.EnforceLogDownloadAuth = true
	a := newTestApp(t, conf)

	req, _ := http.NewRequest("GET", "/download-logs/2026-01-05", nil)
	response := executeRequest(a, req)
	checkResponseCode(t, http.StatusForbidden, response.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, api.Claims{Role: "viewer"})
	signed, err := token.SignedString([]byte(conf.JWTSecret))
	require.NoError(t, err)

	req, _ = http.NewRequest("GET", "/download-all-logs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	response = executeRequest(a, req)
	checkResponseCode(t, http.StatusForbidden, response.Code)
	assert.True(t, strings.HasPrefix(response.Body.String(), "Forbidden"))
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	a := newTestApp(t, testConfig())
	srv := httptest.NewServer(a.Handler)
	defer srv.Close()

	req, _ := http.NewRequest("GET", srv.URL+api.WebSocketPath, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Origin", "https://evil.example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	checkResponseCode(t, http.StatusForbidden, resp.StatusCode)
}
