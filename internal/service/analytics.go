package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/analytics"
	"github.com/Couks/projeto-tfc-sub000/internal/domain"
	"github.com/Couks/projeto-tfc-sub000/internal/dto"
	"github.com/Couks/projeto-tfc-sub000/internal/props"
	"github.com/Couks/projeto-tfc-sub000/internal/repository"
	"github.com/Couks/projeto-tfc-sub000/internal/timerange"
)

// AnalyticsService orchestrates the read path: resolve the date range,
// verify the tenant, query the stores and run the pure engines.
type AnalyticsService struct {
	events  repository.EventRepository
	rollups repository.RollupRepository
	sites   repository.SiteRepository
	log     *zap.Logger
	now     func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(events repository.EventRepository, rollups repository.RollupRepository, sites repository.SiteRepository, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		events:  events,
		rollups: rollups,
		sites:   sites,
		log:     log,
		now:     time.Now,
	}
}

// filterFrom converts the query DTO into a resolver filter. Unparseable
// custom bounds count as missing, which drops the range to the default
// window; input validation proper lives upstream.
func filterFrom(q dto.AnalyticsQuery) timerange.Filter {
	f := timerange.Filter{Period: timerange.Period(q.Period)}
	if t, err := time.Parse(time.RFC3339, q.StartDate); err == nil {
		f.StartDate = &t
	}
	if t, err := time.Parse(time.RFC3339, q.EndDate); err == nil {
		f.EndDate = &t
	}
	return f
}

func periodOf(r timerange.DateRange) dto.Period {
	return dto.Period{
		Start: r.Start.Format(time.RFC3339),
		End:   r.End.Format(time.RFC3339),
	}
}

// prepare runs the shared analyzer prelude: tenant check first, then range
// resolution.
func (s *AnalyticsService) prepare(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (timerange.DateRange, error) {
	exists, err := s.sites.Exists(ctx, siteKey)
	if err != nil {
		return timerange.DateRange{}, fmt.Errorf("failed to verify site: %w", err)
	}
	if !exists {
		return timerange.DateRange{}, domain.ErrSiteNotFound
	}
	return timerange.ResolveAt(s.now(), filterFrom(q)), nil
}

func (s *AnalyticsService) rollupCounts(ctx context.Context, siteKey, dimension string, r timerange.DateRange) ([]analytics.GroupCount, error) {
	return s.rollups.DimensionCounts(ctx, repository.DimensionQuery{
		SiteKey: siteKey,
		Column:  dimension,
		From:    r.Start,
		To:      r.End,
	})
}

func (s *AnalyticsService) searchEvents(ctx context.Context, siteKey string, r timerange.DateRange) ([]analytics.SearchEvent, error) {
	return s.events.SearchEvents(ctx, repository.EventQuery{
		SiteKey:   siteKey,
		EventName: analytics.EventSearchSubmitted,
		From:      r.Start,
		To:        r.End,
	})
}

// searchDimension serves one search dimension through a store-side group-by:
// JSON path extraction and array fan-out run in the event store instead of
// materializing every search event here. Empty keys are dropped; a search
// that never set the field does not contribute.
func (s *AnalyticsService) searchDimension(ctx context.Context, siteKey, path string, unnest bool, r timerange.DateRange, limit int) ([]analytics.DimensionCount, error) {
	groups, err := s.events.DimensionCounts(ctx, repository.DimensionQuery{
		SiteKey:   siteKey,
		EventName: analytics.EventSearchSubmitted,
		From:      r.Start,
		To:        r.End,
		JSONPath:  path,
		Unnest:    unnest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query search dimension %s: %w", path, err)
	}

	kept := groups[:0]
	for _, g := range groups {
		if g.Key != "" {
			kept = append(kept, g)
		}
	}
	return analytics.Aggregate(kept, limit), nil
}

// Conversions reports converted totals split by type and source, served
// from the daily rollups.
func (s *AnalyticsService) Conversions(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.ConversionsResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	byTypeGroups, err := s.rollupCounts(ctx, siteKey, "conversion_type", r)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversion types: %w", err)
	}
	bySourceGroups, err := s.rollupCounts(ctx, siteKey, "conversion_source", r)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversion sources: %w", err)
	}

	var total uint64
	for _, g := range byTypeGroups {
		total += g.Count
	}

	return &dto.ConversionsResponse{
		Period:         periodOf(r),
		TotalConverted: total,
		ByType:         analytics.Aggregate(byTypeGroups, q.Limit),
		BySource:       analytics.Aggregate(bySourceGroups, q.Limit),
	}, nil
}

// Devices reports the device / OS / browser triples, served from the daily
// rollups.
func (s *AnalyticsService) Devices(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.DevicesResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	groups, err := s.rollupCounts(ctx, siteKey, "device", r)
	if err != nil {
		return nil, fmt.Errorf("failed to query device counts: %w", err)
	}

	return &dto.DevicesResponse{
		Period:  periodOf(r),
		Devices: analytics.Aggregate(groups, q.Limit),
	}, nil
}

// Bounce reports bounce-type counts, served from the daily rollups.
func (s *AnalyticsService) Bounce(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.BounceResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	groups, err := s.rollupCounts(ctx, siteKey, "bounce_type", r)
	if err != nil {
		return nil, fmt.Errorf("failed to query bounce counts: %w", err)
	}

	return &dto.BounceResponse{
		Period: periodOf(r),
		Types:  analytics.Aggregate(groups, q.Limit),
	}, nil
}

// SearchProfile reports the search dimensions, amenity flags and numeric
// bucket distributions. This analyzer always hits the raw table: the value
// dimensions run as store-side JSON group-bys with array fan-out, while the
// flag objects and numeric buckets need the parsed payloads. Not rolled up,
// so it stays fresh at the cost of heavier queries.
func (s *AnalyticsService) SearchProfile(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.SearchProfileResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	resp := &dto.SearchProfileResponse{Period: periodOf(r)}

	dimensions := []struct {
		path   string
		unnest bool
		out    *[]analytics.DimensionCount
	}{
		{"finalidade", false, &resp.Finalidades},
		{"tipos", true, &resp.Tipos},
		{"cidades", true, &resp.Cidades},
		{"bairros", true, &resp.Bairros},
		{"quartos", true, &resp.Quartos},
	}
	for _, d := range dimensions {
		counts, err := s.searchDimension(ctx, siteKey, d.path, d.unnest, r, q.Limit)
		if err != nil {
			return nil, err
		}
		*d.out = counts
	}

	events, err := s.searchEvents(ctx, siteKey, r)
	if err != nil {
		return nil, fmt.Errorf("failed to query search events: %w", err)
	}

	resp.TotalSearches = uint64(len(events))
	resp.Comodidades = analytics.FlagCounts(events, "comodidades", q.Limit)
	resp.Lazer = analytics.FlagCounts(events, "lazer", q.Limit)
	resp.Seguranca = analytics.FlagCounts(events, "seguranca", q.Limit)
	resp.PrecoVenda = analytics.ClassifyBuckets(analytics.NumericMins(events, "precoVenda.min"), analytics.SalePriceLadder)
	resp.PrecoAluguel = analytics.ClassifyBuckets(analytics.NumericMins(events, "precoAluguel.min"), analytics.RentalPriceLadder)
	resp.Area = analytics.ClassifyBuckets(analytics.NumericMins(events, "area.min"), analytics.AreaLadder)

	return resp, nil
}

// Filters reports per-field filter usage and mined combinations.
func (s *AnalyticsService) Filters(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.FiltersResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	events, err := s.searchEvents(ctx, siteKey, r)
	if err != nil {
		return nil, fmt.Errorf("failed to query search events: %w", err)
	}

	total := uint64(len(events))
	return &dto.FiltersResponse{
		Period:        periodOf(r),
		TotalSearches: total,
		Usage:         analytics.FilterUsage(events, total, q.Limit),
		Combinations:  analytics.MineCombinations(events, q.Limit),
	}, nil
}

// Funnel reports the canonical conversion funnel.
func (s *AnalyticsService) Funnel(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.FunnelResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	counts, err := s.events.StageCounts(ctx, siteKey, analytics.CanonicalStages, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage counts: %w", err)
	}

	funnel := analytics.BuildFunnel(counts)
	return &dto.FunnelResponse{
		Period:                periodOf(r),
		Stages:                funnel.Stages,
		TotalStarted:          funnel.TotalStarted,
		OverallConversionRate: funnel.OverallConversionRate,
	}, nil
}

// TopConvertingFilters correlates converting sessions with the search
// filters used inside them.
func (s *AnalyticsService) TopConvertingFilters(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.TopConvertingFiltersResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	sessions, err := s.events.ConvertingSessions(ctx, siteKey, analytics.ConversionEvents, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query converting sessions: %w", err)
	}

	searches, err := s.searchEvents(ctx, siteKey, r)
	if err != nil {
		return nil, fmt.Errorf("failed to query search events: %w", err)
	}

	return &dto.TopConvertingFiltersResponse{
		Period:  periodOf(r),
		Filters: analytics.CorrelateConversions(searches, sessions, q.Limit),
	}, nil
}

// LeadProfile aggregates the lead-intent events into the profile summary.
func (s *AnalyticsService) LeadProfile(ctx context.Context, siteKey string, q dto.AnalyticsQuery) (*dto.LeadProfileResponse, error) {
	r, err := s.prepare(ctx, siteKey, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.events.LeadEvents(ctx, repository.EventQuery{
		SiteKey:   siteKey,
		EventName: analytics.EventLeadIntent,
		From:      r.Start,
		To:        r.End,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query lead events: %w", err)
	}

	events := make([]props.Map, 0, len(rows))
	for _, row := range rows {
		events = append(events, props.Map(row))
	}

	return &dto.LeadProfileResponse{
		Period:  periodOf(r),
		Profile: analytics.ProfileLeads(events),
	}, nil
}
