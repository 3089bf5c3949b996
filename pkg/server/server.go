// Package server exposes the query engine over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/aggrego"
	"github.com/soundprediction/aggrego/pkg/config"
	"github.com/soundprediction/aggrego/pkg/server/handlers"
	"github.com/soundprediction/aggrego/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	engine aggrego.Engine
	server *http.Server
	logger *slog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, engine aggrego.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		engine: engine,
		logger: logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.engine)
	queryHandler := handlers.NewQueryHandler(s.engine)
	materializeHandler := handlers.NewMaterializeHandler(s.engine)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/query", queryHandler.Query)
		v1.POST("/classify", queryHandler.Classify)
		v1.POST("/materialize", materializeHandler.Materialize)

		ingest := v1.Group("/ingest")
		{
			ingest.POST("/records", materializeHandler.IngestRecords)
		}
	}
}

// Router returns the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware extracts context information from headers
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			ctx = context.WithValue(ctx, types.ContextKeyUserID, userID)
		}

		sessionID := c.GetHeader("X-Session-ID")
		if sessionID != "" {
			ctx = context.WithValue(ctx, types.ContextKeySessionID, sessionID)
		}

		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
