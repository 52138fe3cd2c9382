package mocks

import (
	"context"
	"encoding/json"

	"gatewayapi/internal/model"
	"gatewayapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) Create(ctx context.Context, ownerID, kind string, data json.RawMessage) (*model.Record, error) {
	args := m.Called(ctx, ownerID, kind, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordService) Get(ctx context.Context, ownerID, id string) (*model.Record, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordService) List(ctx context.Context, ownerID, kind string, limit, offset int) (*service.RecordListResult, error) {
	args := m.Called(ctx, ownerID, kind, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordListResult), args.Error(1)
}

func (m *MockRecordService) Update(ctx context.Context, ownerID, id string, data json.RawMessage) (*model.Record, error) {
	args := m.Called(ctx, ownerID, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordService) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}
