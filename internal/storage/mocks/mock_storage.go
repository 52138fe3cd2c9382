package mocks

import (
	"context"
	"io"

	"gatewayapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, up storage.Upload) (storage.Object, error) {
	args := m.Called(ctx, key, r, up)
	if f, ok := args.Get(0).(func(string, storage.Upload) storage.Object); ok {
		return f(key, up), args.Error(1)
	}
	return args.Get(0).(storage.Object), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.Object, error) {
	args := m.Called(ctx, key)
	obj, _ := args.Get(1).(storage.Object)
	if args.Get(0) == nil {
		return nil, obj, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), obj, args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, p storage.Presign) (string, error) {
	args := m.Called(ctx, key, p)
	return args.String(0), args.Error(1)
}
