package mocks

import (
	"context"
	"time"

	"gatewayapi/internal/model"
	"gatewayapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Create(ctx context.Context, r *model.Record) (*model.Record, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByID(ctx context.Context, ownerID, id string) (*model.Record, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordRepository) List(ctx context.Context, f repository.RecordFilter, pq repository.PageQuery) (*repository.PageResult[model.Record], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Record]), args.Error(1)
}

func (m *MockRecordRepository) UpdateData(ctx context.Context, ownerID, id string, data []byte, at time.Time) (*model.Record, error) {
	args := m.Called(ctx, ownerID, id, data, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *MockRecordRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}
