package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/vidtube-accounts/internal/api/http/response"
	"github.com/dtroode/vidtube-accounts/internal/logger"
	"github.com/dtroode/vidtube-accounts/internal/model"
)

// AccessTokenCookie is the cookie the access token is delivered in.
const AccessTokenCookie = "accessToken"

// AccessVerifier resolves an account id from an access token.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, accessToken string) (uuid.UUID, error)
}

// Authenticate validates access tokens and injects the account id into the request context.
type Authenticate struct {
	verifier       AccessVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier AccessVerifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

// HandleHTTP reads the access token from the accessToken cookie or the
// Authorization header, in that order.
func (m *Authenticate) HandleHTTP(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := m.verifier.VerifyAccess(ctx, accessToken(c))
	if err != nil {
		m.logger.Debug("HTTP authenticate: access denied",
			"request_id", c.GetString(RequestIDKey),
			"error", err.Error())
		response.Error(c, err)
		return
	}

	c.Request = c.Request.WithContext(m.contextManager.SetAccountIDToContext(ctx, accountID))
	c.Next()
}

func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}

	return ""
}
