package mocks

import (
	"context"
	"io"

	"gatewayapi/internal/model"
	"gatewayapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64) (*model.File, error) {
	args := m.Called(ctx, ownerID, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, ownerID string, limit, offset int) (*service.FileListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, ownerID, id string) (*model.File, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Open(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.File, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(*model.File), args.Error(2)
}

func (m *MockFileService) DownloadURL(ctx context.Context, ownerID, id string) (*service.DownloadLink, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadLink), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}
