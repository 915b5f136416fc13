package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/vidtube-accounts/internal/model"
)

// MediaStore is a mock implementation of model.MediaStore.
type MediaStore struct {
	mock.Mock
}

var _ model.MediaStore = (*MediaStore)(nil)

func (m *MediaStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MediaStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
