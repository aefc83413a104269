// Package api exposes the claims workflow over HTTP. It is a thin adapter:
// requests are translated into engine calls and engine errors into status
// codes, nothing more.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP adapter over the workflow engine
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer creates the HTTP server for the given workflow service
func NewServer(config ServerConfig, workflows WorkflowService, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	s := &Server{
		config: config,
		router: router,
		logger: logger,
	}

	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())

	handlers := NewHandlers(workflows, logger)

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/claims", handlers.SubmitClaim)
		api.GET("/claims", handlers.ListClaims)
		api.GET("/claims/:id", handlers.GetClaim)
		api.GET("/claims/:id/audit", handlers.GetAuditTrail)
		api.GET("/claims/:id/deliverables", handlers.GetDeliverables)
		api.POST("/claims/:id/resubmit", handlers.ResubmitClaim)

		api.GET("/review/queue", handlers.ReviewQueue)
		api.GET("/review/:id", handlers.ReviewDetail)
		api.POST("/review/:id/decision", handlers.SubmitReviewDecision)
	}

	return s
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// Start runs the server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
