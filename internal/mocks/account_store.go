package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/vidtube-accounts/internal/model"
)

// AccountStore is a mock implementation of model.AccountStore.
type AccountStore struct {
	mock.Mock
}

var _ model.AccountStore = (*AccountStore)(nil)

func (m *AccountStore) FindByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) FindByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *AccountStore) Create(ctx context.Context, account model.Account) (model.Account, error) {
	args := m.Called(ctx, account)
	if fn, ok := args.Get(0).(func(context.Context, model.Account) model.Account); ok {
		return fn(ctx, account), args.Error(1)
	}
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) UpdateRefreshCredential(ctx context.Context, id uuid.UUID, value *string) error {
	args := m.Called(ctx, id, value)
	return args.Error(0)
}

func (m *AccountStore) SwapRefreshCredential(ctx context.Context, id uuid.UUID, old, value string) error {
	args := m.Called(ctx, id, old, value)
	return args.Error(0)
}

func (m *AccountStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}
