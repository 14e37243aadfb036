// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	blobsHTTP "github.com/allisson/textdrop/internal/blobs/http"
	"github.com/allisson/textdrop/internal/config"
	"github.com/allisson/textdrop/internal/httputil"
	"github.com/allisson/textdrop/internal/metrics"
)

// Pinger reports whether a backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	storage Pinger
	server  *http.Server
	router  *gin.Engine
	logger  *slog.Logger
}

// NewServer creates a new HTTP server. storage backs the readiness probe.
func NewServer(
	storage Pinger,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		storage: storage,
		logger:  logger,
		server:  newHTTPServer(host, port, nil),
	}
}

// SetupRouter configures the Gin router with all routes and middleware.
// ctx bounds the lifetime of background middleware goroutines. Forwarded
// client addresses are only read from cfg.TrustedProxies; with none configured
// the client IP is the peer address.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	blobHandler *blobsHTTP.BlobHandler,
	metricsProvider *metrics.Provider,
) error {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	// Apply custom middleware
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	router.Use(NoStoreMiddleware())

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		metricsMiddleware, err := metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace)
		if err != nil {
			s.logger.Warn("http metrics disabled", slog.Any("error", err))
		} else {
			router.Use(metricsMiddleware)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httputil.ErrorResponse{Error: "not found", Code: httputil.CodeNotFound})
	})
	router.NoMethod(httputil.HandleMethodNotAllowedGin)

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	texts := []gin.HandlerFunc{MaxBytesMiddleware(cfg.MaxRequestBytes, s.logger)}
	if cfg.RateLimitEnabled {
		texts = append(texts, IPRateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}
	texts = append(texts, blobHandler.TextsHandler)
	v1.POST("/texts", texts...)

	s.router = router
	return nil
}

// Start serves the configured router until Shutdown is called.
func (s *Server) Start(_ context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured, call SetupRouter first")
	}
	s.server.Handler = s.router
	return listenAndServe(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports that the process is alive.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the storage backend answers.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"storage": "error"},
		})
		return
	}

	if err := s.storage.Ping(ctx); err != nil {
		s.logger.Error("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"storage": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"storage": "ok"},
	})
}
