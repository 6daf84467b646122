package repository

import (
	"context"
	"time"

	"github.com/Couks/projeto-tfc-sub000/internal/analytics"
	"github.com/Couks/projeto-tfc-sub000/internal/domain"
)

// DimensionQuery selects grouped counts for one dimension of one event
// type. Column is either a physical column name or, when JSONPath is set, a
// path into the properties blob. Unnest causes array values to fan out into
// one row per element.
type DimensionQuery struct {
	SiteKey   string
	EventName string
	From      time.Time
	To        time.Time
	Column    string
	JSONPath  string
	Unnest    bool
}

// EventQuery selects raw events of one type in a window.
type EventQuery struct {
	SiteKey   string
	EventName string
	From      time.Time
	To        time.Time
}

// EventRepository is the event store contract: the write path used by the
// consumer plus the read primitives the analyzers run on.
type EventRepository interface {
	// InsertBatch inserts a batch of events into the storage
	InsertBatch(ctx context.Context, events []*domain.Event) (int, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error

	// DimensionCounts returns raw grouped counts for one dimension; key
	// coalescing, ordering and truncation are the aggregator's job.
	DimensionCounts(ctx context.Context, q DimensionQuery) ([]analytics.GroupCount, error)

	// StageCounts returns per-stage event totals for the funnel, 0 for
	// stages that never occurred in range.
	StageCounts(ctx context.Context, siteKey string, stages []string, from, to time.Time) (map[string]uint64, error)

	// SearchEvents returns the search submissions in range with parsed
	// properties, for the miners and the correlator.
	SearchEvents(ctx context.Context, q EventQuery) ([]analytics.SearchEvent, error)

	// ConvertingSessions returns the distinct session ids that produced at
	// least one of the given conversion events in range.
	ConvertingSessions(ctx context.Context, siteKey string, conversionEvents []string, from, to time.Time) (map[string]struct{}, error)

	// LeadEvents returns the parsed properties of the intent events in
	// range.
	LeadEvents(ctx context.Context, q EventQuery) ([]map[string]interface{}, error)
}

// RollupRepository reads the precomputed daily aggregates and refreshes
// them on demand. Unrefreshed windows silently read as zero rows.
type RollupRepository interface {
	// DimensionCounts reads grouped counts from the daily rollup table.
	DimensionCounts(ctx context.Context, q DimensionQuery) ([]analytics.GroupCount, error)

	// Refresh recomputes the rollup rows for the window.
	Refresh(ctx context.Context, from, to time.Time) error
}

// SiteRepository resolves tenant keys.
type SiteRepository interface {
	// FindByKey returns the site for a key, domain.ErrSiteNotFound when it
	// does not resolve.
	FindByKey(ctx context.Context, key string) (*domain.Site, error)

	// Exists reports whether a site key resolves to an active site.
	Exists(ctx context.Context, key string) (bool, error)
}
