package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenClaims is the decoded content of a verified token.
type TokenClaims struct {
	AccountID uuid.UUID
	Kind      TokenKind
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies signed, expiring tokens.
type TokenCodec interface {
	Issue(accountID uuid.UUID, kind TokenKind, ttl time.Duration) (string, error)
	// Verify returns an error wrapping ErrInvalidToken for any token that is
	// malformed, tampered with or expired.
	Verify(token string) (TokenClaims, error)
}

// CredentialPair is what a successful login or refresh hands back to the caller.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}
