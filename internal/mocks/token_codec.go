package mocks

import (
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/vidtube-accounts/internal/model"
)

// TokenCodec is a mock implementation of model.TokenCodec.
type TokenCodec struct {
	mock.Mock
}

var _ model.TokenCodec = (*TokenCodec)(nil)

func (m *TokenCodec) Issue(accountID uuid.UUID, kind model.TokenKind, ttl time.Duration) (string, error) {
	args := m.Called(accountID, kind, ttl)
	return args.String(0), args.Error(1)
}

func (m *TokenCodec) Verify(token string) (model.TokenClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.TokenClaims), args.Error(1)
}
