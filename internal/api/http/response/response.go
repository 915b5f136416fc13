// Package response writes the JSON envelopes returned by the HTTP API.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vidtube-accounts/internal/apperror"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Success bool   `json:"success"`
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Success writes data wrapped in the success envelope.
func Success(c *gin.Context, status int, message string, data any) {
	noCache(c)
	c.JSON(status, Envelope{
		Status:  status,
		Message: message,
		Data:    data,
		Success: true,
	})
}

// Error writes err as an error envelope and aborts the handler chain.
// Errors that are not an APIError are reported as 500 without details.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "something went wrong"
	if apiErr, ok := apperror.As(err); ok {
		status = apiErr.Status
		message = apiErr.Message
	}

	_ = c.Error(err)
	noCache(c)
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Status:  status,
		Message: message,
		Success: false,
	})
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
