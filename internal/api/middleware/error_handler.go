package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"whisper-relay/internal/api/errors"
)

// ErrorHandler recovers panics into a generic JSON 500
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := GetRequestID(c)

		if err, ok := recovered.(error); ok {
			logger.Error("Internal server error",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		} else {
			logger.Error("Unknown panic occurred",
				zap.Any("recovered", recovered),
				zap.String("request_id", requestID),
			)
		}

		apiErr := errors.NewInternalError("Internal server error")
		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as the JSON error body with the status for its kind
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr := errors.FromError(err)
	apiErr.RequestID = GetRequestID(c)
	_ = c.Error(err)
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
