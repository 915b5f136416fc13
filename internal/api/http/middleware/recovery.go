package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vidtube-accounts/internal/api/http/response"
	"github.com/dtroode/vidtube-accounts/internal/apperror"
	"github.com/dtroode/vidtube-accounts/internal/logger"
)

// Recovery turns handler panics into a 500 envelope.
func Recovery(logger *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("HTTP handler panicked",
			"request_id", c.GetString(RequestIDKey),
			"path", c.Request.URL.Path,
			"panic", fmt.Sprint(recovered))
		response.Error(c, apperror.NewErrInternal(fmt.Errorf("panic: %v", recovered)))
	})
}
