package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/domain"
	"github.com/Couks/projeto-tfc-sub000/internal/dto"
)

func newIngestService(publisher *MockQueuePublisher, sites *MockSiteRepository) *IngestService {
	svc := NewIngestService(publisher, sites, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestIngestService_TrackEvent_Success(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	mockPublisher.On("PublishEvent", mock.Anything, mock.MatchedBy(func(e *domain.Event) bool {
		return e.SiteKey == "site1" && e.EventName == "page_view" && e.Properties == "{}"
	})).Return(nil)

	eventID, err := svc.TrackEvent(context.Background(), "site1", &dto.TrackEventRequest{
		EventName: "page_view",
		UserID:    "user1",
		Timestamp: testNow.UnixMilli(),
	}, "203.0.113.42", "Mozilla/5.0")

	assert.NoError(t, err)
	assert.NotEmpty(t, eventID)
	mockPublisher.AssertExpectations(t)
}

func TestIngestService_TrackEvent_MissingName(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)

	eventID, err := svc.TrackEvent(context.Background(), "site1", &dto.TrackEventRequest{}, "", "")

	assert.ErrorIs(t, err, domain.ErrMissingEventName)
	assert.Empty(t, eventID)
	mockPublisher.AssertNotCalled(t, "PublishEvent")
}

func TestIngestService_TrackEvent_SiteNotFound(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "ghost").Return(false, nil)

	eventID, err := svc.TrackEvent(context.Background(), "ghost", &dto.TrackEventRequest{
		EventName: "page_view",
	}, "", "")

	assert.ErrorIs(t, err, domain.ErrSiteNotFound)
	assert.Empty(t, eventID)
	mockPublisher.AssertNotCalled(t, "PublishEvent")
}

func TestIngestService_TrackEvent_ArrivalTimestampWhenAbsent(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	mockPublisher.On("PublishEvent", mock.Anything, mock.MatchedBy(func(e *domain.Event) bool {
		return e.Timestamp == testNow.UnixMilli()
	})).Return(nil)

	_, err := svc.TrackEvent(context.Background(), "site1", &dto.TrackEventRequest{
		EventName: "page_view",
	}, "", "")

	assert.NoError(t, err)
	mockPublisher.AssertExpectations(t)
}

func TestIngestService_TrackEvent_ContextEnrichment(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)

	var published *domain.Event
	mockPublisher.On("PublishEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).(*domain.Event)
	}).Return(nil)

	_, err := svc.TrackEvent(context.Background(), "site1", &dto.TrackEventRequest{
		EventName: "page_view",
		Context:   map[string]interface{}{"page": "/imovel/42"},
	}, "203.0.113.42", "Mozilla/5.0")

	assert.NoError(t, err)
	assert.Contains(t, published.Context, `"page":"/imovel/42"`)
	assert.Contains(t, published.Context, `"ip":"203.0.113.0"`)
	assert.Contains(t, published.Context, `"userAgent":"Mozilla/5.0"`)
	assert.Contains(t, published.Context, `"serverTimestamp"`)
}

func TestIngestService_TrackEvent_ContentHashIdempotency(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	mockPublisher.On("PublishEvent", mock.Anything, mock.Anything).Return(nil)

	req := &dto.TrackEventRequest{
		EventName: "page_view",
		UserID:    "user1",
		SessionID: "sess1",
		Timestamp: testNow.UnixMilli(),
	}

	id1, _ := svc.TrackEvent(context.Background(), "site1", req, "", "")
	id2, _ := svc.TrackEvent(context.Background(), "site1", req, "", "")
	assert.Equal(t, id1, id2, "same submission should produce the same event id")

	other := &dto.TrackEventRequest{
		EventName: "page_view",
		UserID:    "user2",
		SessionID: "sess1",
		Timestamp: testNow.UnixMilli(),
	}
	id3, _ := svc.TrackEvent(context.Background(), "site1", other, "", "")
	assert.NotEqual(t, id1, id3)
}

func TestIngestService_TrackEventsBatch_AllSuccess(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	mockPublisher.On("PublishEvents", mock.Anything, mock.MatchedBy(func(events []*domain.Event) bool {
		return len(events) == 2
	})).Return(nil).Once()

	resp, err := svc.TrackEventsBatch(context.Background(), "site1", &dto.TrackEventsBatchRequest{
		Events: []dto.TrackEventRequest{
			{EventName: "page_view", UserID: "u1", Timestamp: testNow.UnixMilli()},
			{EventName: "search_submitted", UserID: "u2", Timestamp: testNow.UnixMilli()},
		},
	}, "", "")

	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 0, resp.Rejected)
	assert.Len(t, resp.EventIDs, 2)
	mockPublisher.AssertExpectations(t)
}

func TestIngestService_TrackEventsBatch_PartialFailure(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	// the invalid event is dropped before publication, so the chunk holds two
	mockPublisher.On("PublishEvents", mock.Anything, mock.MatchedBy(func(events []*domain.Event) bool {
		return len(events) == 2
	})).Return(nil).Once()

	resp, err := svc.TrackEventsBatch(context.Background(), "site1", &dto.TrackEventsBatchRequest{
		Events: []dto.TrackEventRequest{
			{EventName: "page_view", UserID: "u1", Timestamp: testNow.UnixMilli()},
			{EventName: "", UserID: "u2"},
			{EventName: "page_view", UserID: "u3", Timestamp: testNow.UnixMilli()},
		},
	}, "", "")

	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
	assert.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "event name is required")
	mockPublisher.AssertExpectations(t)
}

func TestIngestService_TrackEventsBatch_PublishFailureDoesNotRollBack(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	mockPublisher.On("PublishEvents", mock.Anything, mock.Anything).Return([]error{nil, errors.New("queue unavailable")}).Once()

	resp, err := svc.TrackEventsBatch(context.Background(), "site1", &dto.TrackEventsBatchRequest{
		Events: []dto.TrackEventRequest{
			{EventName: "page_view", UserID: "u1", Timestamp: testNow.UnixMilli()},
			{EventName: "page_view", UserID: "u2", Timestamp: testNow.UnixMilli()},
		},
	}, "", "")

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
	assert.Contains(t, resp.Errors[0], "event 1")
}

func TestIngestService_TrackEventsBatch_PublishesInChunks(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	mockPublisher.On("PublishEvents", mock.Anything, mock.MatchedBy(func(events []*domain.Event) bool {
		return len(events) == chunkSize
	})).Return(nil).Once()
	mockPublisher.On("PublishEvents", mock.Anything, mock.MatchedBy(func(events []*domain.Event) bool {
		return len(events) == 50
	})).Return(nil).Once()

	events := make([]dto.TrackEventRequest, chunkSize+50)
	for i := range events {
		events[i] = dto.TrackEventRequest{EventName: "page_view", SessionID: fmt.Sprintf("s%d", i), Timestamp: testNow.UnixMilli()}
	}

	resp, err := svc.TrackEventsBatch(context.Background(), "site1", &dto.TrackEventsBatchRequest{Events: events}, "", "")

	assert.NoError(t, err)
	assert.Equal(t, chunkSize+50, resp.Accepted)
	mockPublisher.AssertExpectations(t)
}

func TestIngestService_TrackEventsBatch_ChunkFailureDoesNotRollBack(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	chunkErrs := make([]error, 10)
	for i := range chunkErrs {
		chunkErrs[i] = errors.New("queue unavailable")
	}

	mockSites.On("Exists", mock.Anything, "site1").Return(true, nil)
	mockPublisher.On("PublishEvents", mock.Anything, mock.MatchedBy(func(events []*domain.Event) bool {
		return len(events) == chunkSize
	})).Return(nil).Once()
	mockPublisher.On("PublishEvents", mock.Anything, mock.MatchedBy(func(events []*domain.Event) bool {
		return len(events) == 10
	})).Return(chunkErrs).Once()

	events := make([]dto.TrackEventRequest, chunkSize+10)
	for i := range events {
		events[i] = dto.TrackEventRequest{EventName: "page_view", SessionID: fmt.Sprintf("s%d", i), Timestamp: testNow.UnixMilli()}
	}

	resp, err := svc.TrackEventsBatch(context.Background(), "site1", &dto.TrackEventsBatchRequest{Events: events}, "", "")

	// the first chunk stays published even though the second one failed
	assert.NoError(t, err)
	assert.Equal(t, chunkSize, resp.Accepted)
	assert.Equal(t, 10, resp.Rejected)
	mockPublisher.AssertExpectations(t)
}

func TestIngestService_TrackEventsBatch_EmptyRejected(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	resp, err := svc.TrackEventsBatch(context.Background(), "site1", &dto.TrackEventsBatchRequest{}, "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidBatchSize)
	assert.Nil(t, resp)
	mockPublisher.AssertNotCalled(t, "PublishEvents")
}

func TestIngestService_TrackEventsBatch_OversizeRejected(t *testing.T) {
	mockPublisher := new(MockQueuePublisher)
	mockSites := new(MockSiteRepository)
	svc := newIngestService(mockPublisher, mockSites)

	events := make([]dto.TrackEventRequest, maxBatchSize+1)
	for i := range events {
		events[i] = dto.TrackEventRequest{EventName: "page_view"}
	}

	resp, err := svc.TrackEventsBatch(context.Background(), "site1", &dto.TrackEventsBatchRequest{Events: events}, "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidBatchSize)
	assert.Nil(t, resp)
	mockPublisher.AssertNotCalled(t, "PublishEvents")
}

func TestAnonymizeIP(t *testing.T) {
	assert.Equal(t, "203.0.113.0", anonymizeIP("203.0.113.42"))
	assert.Equal(t, "2001:db8:1234::", anonymizeIP("2001:db8:1234:5678::1"))
	assert.Equal(t, "", anonymizeIP("not-an-ip"))
	assert.Equal(t, "", anonymizeIP(""))
}

func TestRollupService_Refresh_DefaultWindow(t *testing.T) {
	mockRollups := new(MockRollupRepository)
	svc := NewRollupService(mockRollups, zap.NewNop())
	svc.now = func() time.Time { return testNow }

	mockRollups.On("Refresh", mock.Anything, testNow.AddDate(0, 0, -defaultRefreshDays), testNow).Return(nil)

	err := svc.Refresh(context.Background(), time.Time{}, time.Time{})

	assert.NoError(t, err)
	mockRollups.AssertExpectations(t)
}

func TestRollupService_Refresh_ExplicitWindow(t *testing.T) {
	mockRollups := new(MockRollupRepository)
	svc := NewRollupService(mockRollups, zap.NewNop())

	from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	mockRollups.On("Refresh", mock.Anything, from, to).Return(nil)

	err := svc.Refresh(context.Background(), from, to)

	assert.NoError(t, err)
	mockRollups.AssertExpectations(t)
}

func TestRollupService_Refresh_RepositoryError(t *testing.T) {
	mockRollups := new(MockRollupRepository)
	svc := NewRollupService(mockRollups, zap.NewNop())

	mockRollups.On("Refresh", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mutation failed"))

	err := svc.Refresh(context.Background(), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to refresh rollups")
}
