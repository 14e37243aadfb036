package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	blobsHTTP "github.com/allisson/textdrop/internal/blobs/http"
	"github.com/allisson/textdrop/internal/blobs/usecase/mocks"
	"github.com/allisson/textdrop/internal/config"
	"github.com/allisson/textdrop/internal/metrics"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// createTestServer creates a test server with a discarding logger.
func createTestServer(storage Pinger) *Server {
	return NewServer(storage, "localhost", 0, testLogger)
}

func testConfig() *config.Config {
	return &config.Config{
		MaxRequestBytes:         1024,
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 1,
		RateLimitBurst:          3,
		MetricsNamespace:        "textdrop_test",
	}
}

// createFullRouter wires the real router around a mocked blob use case.
func createFullRouter(t *testing.T, cfg *config.Config) (*Server, *mocks.MockBlobUseCase) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	mockUseCase := &mocks.MockBlobUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })

	server := createTestServer(fakePinger{})
	require.NoError(t, server.SetupRouter(ctx, cfg, blobsHTTP.NewBlobHandler(mockUseCase, testLogger), nil))
	return server, mockUseCase
}

func serve(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name      string
		storage   Pinger
		status    int
		readiness string
		component string
	}{
		{name: "nil storage", storage: nil, status: http.StatusServiceUnavailable, readiness: "not_ready", component: "error"},
		{
			name:      "storage down",
			storage:   fakePinger{err: errors.New("disk gone")},
			status:    http.StatusServiceUnavailable,
			readiness: "not_ready",
			component: "error",
		},
		{name: "storage up", storage: fakePinger{}, status: http.StatusOK, readiness: "ready", component: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := createTestServer(tt.storage)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			server.readinessHandler(c)

			assert.Equal(t, tt.status, w.Code)

			var response map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.readiness, response["status"])

			components, ok := response["components"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.component, components["storage"])
		})
	}
}

func TestCustomLoggerMiddleware(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))
	router.POST("/v1/texts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := serve(router, http.MethodPost, "/v1/texts", `{"action":"fetch","code":"do-not-log-me"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), `"route":"/v1/texts"`)
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), w.Header().Get("X-Request-Id"))
	assert.NotContains(t, buf.String(), "do-not-log-me")
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(testLogger))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := serve(router, http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNoStoreMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(NoStoreMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := serve(router, http.MethodGet, "/test", "")

	assert.Equal(t, "no-store, no-cache, must-revalidate, max-age=0", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestMaxBytesMiddleware_RejectsDeclaredLength(t *testing.T) {
	router := gin.New()
	router.Use(MaxBytesMiddleware(8, testLogger))
	router.POST("/test", func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	w := serve(router, http.MethodPost, "/test", `{"action":"save"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "payload_too_large")
}

func TestRouter_Texts(t *testing.T) {
	t.Run("save", func(t *testing.T) {
		server, mockUseCase := createFullRouter(t, testConfig())
		mockUseCase.On("Save", mock.Anything, "abc", "e2e1:x").Return(nil).Once()

		w := serve(server.GetHandler(), http.MethodPost, "/v1/texts", `{"action":"save","code":"abc","text":"e2e1:x"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
		assert.Equal(t, "no-store, no-cache, must-revalidate, max-age=0", w.Header().Get("Cache-Control"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	})

	t.Run("fetch", func(t *testing.T) {
		server, mockUseCase := createFullRouter(t, testConfig())
		mockUseCase.On("Fetch", mock.Anything, "abc").Return("e2e1:x", nil).Once()

		w := serve(server.GetHandler(), http.MethodPost, "/v1/texts", `{"action":"fetch","code":"abc"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"text":"e2e1:x"}`, w.Body.String())
	})

	t.Run("oversized body", func(t *testing.T) {
		server, _ := createFullRouter(t, testConfig())

		body := `{"action":"save","code":"abc","text":"` + strings.Repeat("a", 2048) + `"}`
		w := serve(server.GetHandler(), http.MethodPost, "/v1/texts", body)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		server, _ := createFullRouter(t, testConfig())

		// Bad requests still consume the bucket, so guessing is slowed either way.
		for i := 0; i < 3; i++ {
			w := serve(server.GetHandler(), http.MethodPost, "/v1/texts", "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}

		w := serve(server.GetHandler(), http.MethodPost, "/v1/texts", "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("forwarded headers from untrusted peer ignored", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimitRequestsPerSec = 0.001
		server, _ := createFullRouter(t, cfg)

		limited := 0
		for i := range 10 {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/texts", strings.NewReader(""))
			req.RemoteAddr = "203.0.113.7:40000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
			req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i+1))
			server.GetHandler().ServeHTTP(w, req)
			if w.Code == http.StatusTooManyRequests {
				limited++
			}
		}
		assert.Equal(t, 7, limited, "one bucket of burst 3 for the peer address")
	})

	t.Run("forwarded header from trusted proxy used", func(t *testing.T) {
		cfg := testConfig()
		cfg.TrustedProxies = []string{"10.0.0.0/8"}
		server, _ := createFullRouter(t, cfg)

		for i := range 10 {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/texts", strings.NewReader(""))
			req.RemoteAddr = "10.1.2.3:40000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
			server.GetHandler().ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, "each client has its own bucket")
		}
	})

	t.Run("rate limit disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimitEnabled = false
		server, _ := createFullRouter(t, cfg)

		for i := 0; i < 10; i++ {
			w := serve(server.GetHandler(), http.MethodPost, "/v1/texts", "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})
}

func TestServer_SetupRouterInvalidTrustedProxies(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"not-an-ip"}

	server := createTestServer(fakePinger{})
	err := server.SetupRouter(context.Background(), cfg, blobsHTTP.NewBlobHandler(&mocks.MockBlobUseCase{}, testLogger), nil)
	assert.ErrorContains(t, err, "invalid trusted proxies")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	server, _ := createFullRouter(t, testConfig())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := serve(server.GetHandler(), method, "/v1/texts", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Contains(t, w.Body.String(), "method_not_allowed")
		assert.Equal(t, "no-store, no-cache, must-revalidate, max-age=0", w.Header().Get("Cache-Control"))
	}
}

func TestRouter_NotFoundEndpoint(t *testing.T) {
	server, _ := createFullRouter(t, testConfig())

	w := serve(server.GetHandler(), http.MethodGet, "/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
}

func TestRouter_HealthAndReady(t *testing.T) {
	server, _ := createFullRouter(t, testConfig())

	assert.Equal(t, http.StatusOK, serve(server.GetHandler(), http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(server.GetHandler(), http.MethodGet, "/ready", "").Code)
}

func TestServer_StartWithoutRouter(t *testing.T) {
	server := createTestServer(nil)
	assert.Error(t, server.Start(context.Background()))
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server, _ := createFullRouter(t, testConfig())

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	assert.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("textdrop_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 0, testLogger, provider)
	require.NotNil(t, metricsServer)

	w := serve(metricsServer.GetHandler(), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = serve(metricsServer.GetHandler(), http.MethodPost, "/v1/texts", `{"action":"fetch","code":"abc"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsServer_WithoutProvider(t *testing.T) {
	metricsServer := NewMetricsServer("localhost", 0, testLogger, nil)

	w := serve(metricsServer.GetHandler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_NoMetricsEndpoint(t *testing.T) {
	server, _ := createFullRouter(t, testConfig())

	w := serve(server.GetHandler(), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
