package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"whisper-relay/internal/api/dto"
	"whisper-relay/internal/app/api"
)

// HealthHandler reports liveness and whether the provider is configured
type HealthHandler struct {
	transcriber api.Transcriber
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(transcriber api.Transcriber) *HealthHandler {
	return &HealthHandler{transcriber: transcriber}
}

// Health handles GET /health
//
// @Summary Liveness and provider configuration
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:           "healthy",
		Timestamp:        time.Now().Unix(),
		APIKeyConfigured: h.transcriber.ValidateConfiguration() == nil,
	})
}
