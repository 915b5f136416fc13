package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/vidtube-accounts/internal/logger"
)

// CallObserver records per-call metrics.
type CallObserver interface {
	ObserveGRPCRequest(method, code string)
}

// Logging is a unary interceptor that logs gRPC requests and results.
type Logging struct {
	logger   *logger.Logger
	observer CallObserver
}

// NewLogging creates a new Logging middleware. observer may be nil.
func NewLogging(logger *logger.Logger, observer CallObserver) *Logging {
	return &Logging{logger: logger, observer: observer}
}

// HandleGRPC logs method name, duration and status for each unary request.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	duration := time.Since(start)

	code := codes.OK
	if err != nil {
		if st, ok := status.FromError(err); ok {
			code = st.Code()
		} else {
			code = codes.Internal
		}
	}

	if err != nil {
		l.logger.Error("gRPC request failed",
			"method", info.FullMethod,
			"duration_ms", duration.Milliseconds(),
			"status", code.String(),
			"error", err.Error())
	} else {
		l.logger.Debug("gRPC request completed",
			"method", info.FullMethod,
			"duration_ms", duration.Milliseconds(),
			"status", code.String())
	}

	if l.observer != nil {
		l.observer.ObserveGRPCRequest(info.FullMethod, code.String())
	}

	return resp, err
}
