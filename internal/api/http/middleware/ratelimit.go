package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dtroode/vidtube-accounts/internal/api/http/response"
	"github.com/dtroode/vidtube-accounts/internal/apperror"
	"github.com/dtroode/vidtube-accounts/internal/logger"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	RequestsPerWindow int
	Window            time.Duration
	// Burst allows for temporary bursts above the rate limit.
	Burst int
}

// RejectionRecorder counts rejected requests.
type RejectionRecorder interface {
	RecordRateLimited()
}

// RateLimit throttles requests per client IP with a token bucket each.
type RateLimit struct {
	cfg      RateLimitConfig
	limit    rate.Limit
	limiters sync.Map // map[string]*rate.Limiter
	recorder RejectionRecorder
	logger   *logger.Logger

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewRateLimit creates a rate limiting middleware. recorder may be nil.
func NewRateLimit(cfg RateLimitConfig, recorder RejectionRecorder, logger *logger.Logger) *RateLimit {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerWindow
	}
	return &RateLimit{
		cfg:         cfg,
		limit:       rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		recorder:    recorder,
		logger:      logger,
		lastCleanup: time.Now(),
	}
}

// HandleHTTP rejects the request with 429 once the client's bucket is empty.
func (rl *RateLimit) HandleHTTP(c *gin.Context) {
	key := c.ClientIP()
	limiter := rl.limiter(key)

	if !limiter.Allow() {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		retryAfter := max(int(delay.Seconds()), 1)

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.RequestsPerWindow))
		c.Header("X-RateLimit-Window", rl.cfg.Window.String())

		rl.logger.Warn("HTTP rate limit exceeded",
			"request_id", c.GetString(RequestIDKey),
			"key", key,
			"path", c.Request.URL.Path,
			"retry_after", retryAfter)
		if rl.recorder != nil {
			rl.recorder.RecordRateLimited()
		}

		response.Error(c, &apperror.APIError{
			Status:  http.StatusTooManyRequests,
			Message: "too many requests, please try again later",
		})
		return
	}

	c.Next()
}

func (rl *RateLimit) limiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.limit, rl.cfg.Burst))
	rl.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket is full again, at most every five minutes.
func (rl *RateLimit) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.cfg.Burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}
