package service

import (
	"context"
	"time"

	"github.com/Couks/projeto-tfc-sub000/internal/dto"
)

// AnalyticsServicer defines the read-path analyzer operations. Every method
// verifies the tenant before any aggregation work and echoes the resolved
// period in its response.
type AnalyticsServicer interface {
	Conversions(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.ConversionsResponse, error)
	Devices(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.DevicesResponse, error)
	Bounce(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.BounceResponse, error)
	SearchProfile(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.SearchProfileResponse, error)
	Filters(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.FiltersResponse, error)
	Funnel(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.FunnelResponse, error)
	TopConvertingFilters(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.TopConvertingFiltersResponse, error)
	LeadProfile(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.LeadProfileResponse, error)
}

// IngestServicer defines the write-path gateway operations.
type IngestServicer interface {
	TrackEvent(ctx context.Context, siteKey string, req *dto.TrackEventRequest, clientIP, userAgent string) (string, error)
	TrackEventsBatch(ctx context.Context, siteKey string, req *dto.TrackEventsBatchRequest, clientIP, userAgent string) (*dto.TrackEventsBatchResponse, error)
}

// RollupServicer triggers rollup maintenance.
type RollupServicer interface {
	Refresh(ctx context.Context, from, to time.Time) error
}
