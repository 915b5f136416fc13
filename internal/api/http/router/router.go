package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vidtube-accounts/internal/api/http/handler"
	"github.com/dtroode/vidtube-accounts/internal/api/http/middleware"
	"github.com/dtroode/vidtube-accounts/internal/api/http/response"
	"github.com/dtroode/vidtube-accounts/internal/apperror"
	"github.com/dtroode/vidtube-accounts/internal/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router wires the HTTP handlers and middleware of the accounts API.
type Router struct {
	users              *handler.Users
	authenticate       *middleware.Authenticate
	rateLimit          *middleware.RateLimit
	observer           middleware.RequestObserver
	metrics            http.Handler
	health             HealthChecker
	maxMultipartMemory int64
	logger             *logger.Logger
}

// Params are the dependencies of a Router. Metrics, Health and Observer may be nil.
type Params struct {
	Users              *handler.Users
	Authenticate       *middleware.Authenticate
	RateLimit          *middleware.RateLimit
	Observer           middleware.RequestObserver
	Metrics            http.Handler
	Health             HealthChecker
	MaxMultipartMemory int64
	Logger             *logger.Logger
}

// New creates new HTTP Router instance.
func New(p Params) *Router {
	return &Router{
		users:              p.Users,
		authenticate:       p.Authenticate,
		rateLimit:          p.RateLimit,
		observer:           p.Observer,
		metrics:            p.Metrics,
		health:             p.Health,
		maxMultipartMemory: p.MaxMultipartMemory,
		logger:             p.Logger,
	}
}

// Register builds the gin engine with all routes.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	if r.maxMultipartMemory > 0 {
		engine.MaxMultipartMemory = r.maxMultipartMemory
	}

	logging := middleware.NewLogging(r.logger, r.observer)
	engine.Use(middleware.RequestID(), logging.HandleHTTP, middleware.Recovery(r.logger))

	engine.NoRoute(func(c *gin.Context) {
		response.Error(c, apperror.NewErrNotFound("route not found"))
	})

	engine.GET("/healthz", r.healthz)
	if r.metrics != nil {
		engine.GET("/metrics", gin.WrapH(r.metrics))
	}

	r.registerUserRoutes(engine.Group("/api/v1/users"))

	return engine
}

func (r *Router) registerUserRoutes(users *gin.RouterGroup) {
	users.POST("/register", r.users.Register)
	users.POST("/login", r.rateLimit.HandleHTTP, r.users.Login)
	users.POST("/refresh-token", r.users.RefreshToken)

	secured := users.Group("", r.authenticate.HandleHTTP)
	secured.POST("/logout", r.users.Logout)
	secured.POST("/change-password", r.users.ChangePassword)
	secured.GET("/current-user", r.users.CurrentUser)
}

func (r *Router) healthz(c *gin.Context) {
	if r.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		if err := r.health.Ping(ctx); err != nil {
			r.logger.Error("health check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
