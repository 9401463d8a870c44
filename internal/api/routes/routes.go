package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "whisper-relay/docs" // Generated swagger docs
	"whisper-relay/internal/api/handlers"
	"whisper-relay/internal/api/middleware"
)

// HandlerContainer holds everything the router serves
type HandlerContainer struct {
	Transcription *handlers.TranscriptionHandler
	Health        *handlers.HealthHandler
	// IPC is the websocket bridge, optional
	IPC http.Handler
	// Metrics is the Prometheus exposition handler, optional
	Metrics http.Handler
	// MaxBodyBytes limits the transcription endpoints
	MaxBodyBytes int64
}

// RegisterRoutes registers all routes on router
func RegisterRoutes(router *gin.Engine, container *HandlerContainer) {
	router.GET("/health", container.Health.Health)

	if container.Metrics != nil {
		router.GET("/metrics", gin.WrapH(container.Metrics))
	}
	if container.IPC != nil {
		router.GET("/ipc", gin.WrapH(container.IPC))
	}

	// Swagger documentation routes
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.Use(middleware.BodyLimit(container.MaxBodyBytes))
	{
		api.POST("/microphone", container.Transcription.Microphone)
		api.POST("/file", container.Transcription.File)
	}
}
