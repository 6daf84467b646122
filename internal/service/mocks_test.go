package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Couks/projeto-tfc-sub000/internal/analytics"
	"github.com/Couks/projeto-tfc-sub000/internal/domain"
	"github.com/Couks/projeto-tfc-sub000/internal/repository"
)

// MockQueuePublisher is a mock implementation of queue.QueuePublisher
type MockQueuePublisher struct {
	mock.Mock
}

func (m *MockQueuePublisher) PublishEvent(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockQueuePublisher) PublishEvents(ctx context.Context, events []*domain.Event) []error {
	args := m.Called(ctx, events)
	if args.Get(0) == nil {
		return make([]error, len(events))
	}
	return args.Get(0).([]error)
}

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) InsertBatch(ctx context.Context, events []*domain.Event) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockEventRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockEventRepository) DimensionCounts(ctx context.Context, q repository.DimensionQuery) ([]analytics.GroupCount, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.GroupCount), args.Error(1)
}

func (m *MockEventRepository) StageCounts(ctx context.Context, siteKey string, stages []string, from, to time.Time) (map[string]uint64, error) {
	args := m.Called(ctx, siteKey, stages, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]uint64), args.Error(1)
}

func (m *MockEventRepository) SearchEvents(ctx context.Context, q repository.EventQuery) ([]analytics.SearchEvent, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.SearchEvent), args.Error(1)
}

func (m *MockEventRepository) ConvertingSessions(ctx context.Context, siteKey string, conversionEvents []string, from, to time.Time) (map[string]struct{}, error) {
	args := m.Called(ctx, siteKey, conversionEvents, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockEventRepository) LeadEvents(ctx context.Context, q repository.EventQuery) ([]map[string]interface{}, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

// MockRollupRepository is a mock implementation of repository.RollupRepository
type MockRollupRepository struct {
	mock.Mock
}

func (m *MockRollupRepository) DimensionCounts(ctx context.Context, q repository.DimensionQuery) ([]analytics.GroupCount, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.GroupCount), args.Error(1)
}

func (m *MockRollupRepository) Refresh(ctx context.Context, from, to time.Time) error {
	args := m.Called(ctx, from, to)
	return args.Error(0)
}

// MockSiteRepository is a mock implementation of repository.SiteRepository
type MockSiteRepository struct {
	mock.Mock
}

func (m *MockSiteRepository) FindByKey(ctx context.Context, key string) (*domain.Site, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Site), args.Error(1)
}

func (m *MockSiteRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
