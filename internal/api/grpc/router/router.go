package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/dtroode/vidtube-accounts/internal/api/grpc/middleware"
	"github.com/dtroode/vidtube-accounts/internal/logger"
)

// Router represents a gRPC router for the accounts service.
// It manages gRPC service registration and middleware configuration.
type Router struct {
	health   healthpb.HealthServer
	observer middleware.CallObserver
	logger   *logger.Logger
}

// New creates new gRPC Router instance. observer may be nil.
func New(health healthpb.HealthServer, observer middleware.CallObserver, logger *logger.Logger) *Router {
	return &Router{
		health:   health,
		observer: observer,
		logger:   logger,
	}
}

// Register builds the gRPC server with logging and panic recovery
// interceptors and registers the health and reflection services.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger, r.observer)
	recoveryOpt := recovery.WithRecoveryHandlerContext(r.recoverPanic)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoveryOpt),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpt),
		),
	)

	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}

func (r *Router) recoverPanic(_ context.Context, p any) error {
	r.logger.Error("gRPC handler panicked", "panic", p)
	return status.Error(codes.Internal, "internal error")
}
