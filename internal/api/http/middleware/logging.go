package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vidtube-accounts/internal/logger"
)

// RequestObserver records per-request metrics.
type RequestObserver interface {
	ObserveHTTPRequest(route, method string, status int, elapsed time.Duration)
}

// Logging logs every HTTP request and reports it to the observer.
type Logging struct {
	logger   *logger.Logger
	observer RequestObserver
}

// NewLogging creates a new Logging middleware. observer may be nil.
func NewLogging(logger *logger.Logger, observer RequestObserver) *Logging {
	return &Logging{logger: logger, observer: observer}
}

// HandleHTTP logs method, route, status and duration for each request.
func (l *Logging) HandleHTTP(c *gin.Context) {
	start := time.Now()

	c.Next()

	elapsed := time.Since(start)
	status := c.Writer.Status()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}

	args := []any{
		"request_id", c.GetString(RequestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"route", route,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
		"client_ip", c.ClientIP(),
	}
	if len(c.Errors) > 0 {
		args = append(args, "error", c.Errors.Last().Error())
	}

	switch {
	case status >= 500:
		l.logger.Error("HTTP request failed", args...)
	case status >= 400:
		l.logger.Warn("HTTP request rejected", args...)
	default:
		l.logger.Info("HTTP request completed", args...)
	}

	if l.observer != nil {
		l.observer.ObserveHTTPRequest(route, c.Request.Method, status, elapsed)
	}
}
