package model

import (
	"context"
	"net"

	"github.com/google/uuid"
)

// ContextManager carries the authenticated account id through a request context.
type ContextManager interface {
	SetAccountIDToContext(ctx context.Context, accountID uuid.UUID) context.Context
	// GetAccountIDFromContext reports false when no account was authenticated.
	GetAccountIDFromContext(ctx context.Context) (uuid.UUID, bool)
}

// SecurityLayer opens the listener a server accepts connections on.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is one of the network servers main starts and drains on shutdown.
type Server interface {
	Start(securityLayer SecurityLayer) error
	// Stop returns once in-flight requests are done or ctx expires.
	Stop(ctx context.Context) error
	Address() string
}
