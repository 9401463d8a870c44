package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"whisper-relay/internal/api/handlers"
	"whisper-relay/internal/api/middleware"
	"whisper-relay/internal/api/routes"
	"whisper-relay/internal/app/api"
	"whisper-relay/internal/app/relay"
	"whisper-relay/internal/config"
	"whisper-relay/internal/ipc"
)

// Config represents API server configuration
type Config struct {
	// Address is the host:port to listen on
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxUploadMB  int
	Environment  string
}

// ConfigFrom extracts the server settings from the relay configuration
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Address:      cfg.Address(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
		Environment:  cfg.Environment,
	}
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	bridge     *ipc.Bridge
	logger     *zap.Logger
}

// NewServer creates a new API server. bridge and gatherer may be nil.
func NewServer(
	cfg Config,
	submitter relay.Submitter,
	transcriber api.Transcriber,
	bridge *ipc.Bridge,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	// Set Gin mode based on environment
	if cfg.Environment == config.EnvironmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	container := &routes.HandlerContainer{
		Transcription: handlers.NewTranscriptionHandler(submitter),
		Health:        handlers.NewHealthHandler(transcriber),
		MaxBodyBytes:  int64(cfg.MaxUploadMB) << 20,
	}
	if bridge != nil {
		container.IPC = bridge
	}
	if gatherer != nil {
		container.Metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	routes.RegisterRoutes(router, container)

	httpServer := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		config:     cfg,
		router:     router,
		httpServer: httpServer,
		bridge:     bridge,
		logger:     logger,
	}
}

// Start serves until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.httpServer.Addr),
		zap.String("environment", s.config.Environment),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start server", zap.Error(err))
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")

	if s.bridge != nil {
		s.bridge.Close()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
