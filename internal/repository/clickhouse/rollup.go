package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/analytics"
	"github.com/Couks/projeto-tfc-sub000/internal/repository"
)

// rollupSpec declares one precomputed dimension of the daily rollup table.
// The select expression runs against the raw events table at refresh time.
type rollupSpec struct {
	Dimension  string
	EventNames []string
	ValueExpr  string
}

// rollupSpecs are the dimensions served from the rollup store instead of
// raw event scans: conversions by type and source, bounce types and device
// triples. Everything else (array dimensions, session correlation) stays on
// the raw table.
var rollupSpecs = []rollupSpec{
	{
		Dimension:  "conversion_type",
		EventNames: analytics.ConversionEvents,
		ValueExpr:  "event_name",
	},
	{
		Dimension:  "conversion_source",
		EventNames: analytics.ConversionEvents,
		ValueExpr:  "JSONExtractString(properties, 'source')",
	},
	{
		Dimension:  "bounce_type",
		EventNames: []string{analytics.EventSessionBounced},
		ValueExpr:  "JSONExtractString(properties, 'type')",
	},
	{
		Dimension:  "device",
		EventNames: []string{analytics.EventPageView},
		ValueExpr: "concat(JSONExtractString(context, 'device'), ' / ', " +
			"JSONExtractString(context, 'os'), ' / ', JSONExtractString(context, 'browser'))",
	},
}

// RollupRepository implements repository.RollupRepository over the
// event_rollups_daily table.
type RollupRepository struct {
	client *Client
	log    *zap.Logger
}

// NewRollupRepository creates a rollup repository sharing the event store
// connection.
func NewRollupRepository(client *Client, log *zap.Logger) *RollupRepository {
	return &RollupRepository{client: client, log: log}
}

func (r *Repository) initRollupSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS event_rollups_daily (
		site_key LowCardinality(String),
		bucket_date Date,
		dimension LowCardinality(String),
		dimension_value String,
		total UInt64
	) ENGINE = SummingMergeTree(total)
	ORDER BY (site_key, bucket_date, dimension, dimension_value)
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create rollup table: %w", err)
	}
	return nil
}

// DimensionCounts reads grouped counts from the daily rollups. Windows that
// were never refreshed simply have no rows.
func (r *RollupRepository) DimensionCounts(ctx context.Context, q repository.DimensionQuery) ([]analytics.GroupCount, error) {
	query := `
		SELECT
			dimension_value as group_value,
			sum(total) as total
		FROM event_rollups_daily
		WHERE site_key = ? AND dimension = ? AND bucket_date >= toDate(?) AND bucket_date <= toDate(?)
		GROUP BY dimension_value
	`

	rows, err := r.client.Conn().Query(ctx, query,
		q.SiteKey, q.Column, q.From.Format("2006-01-02"), q.To.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query rollup counts: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close rollup rows", zap.Error(err))
		}
	}()

	var groups []analytics.GroupCount
	for rows.Next() {
		var g analytics.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rollup row: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Refresh recomputes the rollup rows for a date window: the window is
// cleared and every spec reinserted from the raw events table. Reads
// against the window reflect new data only after this completes.
func (r *RollupRepository) Refresh(ctx context.Context, from, to time.Time) error {
	start := time.Now()

	clearQuery := `
		ALTER TABLE event_rollups_daily
		DELETE WHERE bucket_date >= toDate(?) AND bucket_date <= toDate(?)
	`
	if err := r.client.Conn().Exec(ctx, clearQuery,
		from.Format("2006-01-02"), to.Format("2006-01-02")); err != nil {
		return fmt.Errorf("failed to clear rollup window: %w", err)
	}

	for _, spec := range rollupSpecs {
		if err := r.refreshSpec(ctx, spec, from, to); err != nil {
			return err
		}
	}

	r.log.Info("Rollup window refreshed",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *RollupRepository) refreshSpec(ctx context.Context, spec rollupSpec, from, to time.Time) error {
	names := make([]string, len(spec.EventNames))
	args := make([]interface{}, 0, len(spec.EventNames)+2)
	for i, name := range spec.EventNames {
		names[i] = "?"
		args = append(args, name)
	}
	args = append(args, from.UnixMilli(), to.UnixMilli())

	query := fmt.Sprintf(`
		INSERT INTO event_rollups_daily (site_key, bucket_date, dimension, dimension_value, total)
		SELECT
			site_key,
			toDate(toDateTime(intDiv(timestamp, 1000))) as bucket_date,
			'%s' as dimension,
			%s as dimension_value,
			count() as total
		FROM events FINAL
		WHERE event_name IN (%s) AND timestamp >= ? AND timestamp <= ?
		GROUP BY site_key, bucket_date, dimension_value
	`, spec.Dimension, spec.ValueExpr, strings.Join(names, ", "))

	if err := r.client.Conn().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to refresh rollup dimension %s: %w", spec.Dimension, err)
	}
	return nil
}
