package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/analytics"
	"github.com/Couks/projeto-tfc-sub000/internal/domain"
	"github.com/Couks/projeto-tfc-sub000/internal/props"
	"github.com/Couks/projeto-tfc-sub000/internal/repository"
)

// Repository implements EventRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema initializes the ClickHouse schema with ReplacingMergeTree engine
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		event_id String,
		site_key LowCardinality(String),
		event_name LowCardinality(String),
		user_id String,
		session_id String,
		timestamp Int64,
		properties String,
		context String,
		created_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (event_id)
	ORDER BY (event_id, timestamp)
	PARTITION BY toYYYYMM(toDateTime(intDiv(timestamp, 1000)))
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	if err := r.initRollupSchema(ctx); err != nil {
		return err
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch inserts a batch of events into ClickHouse
func (r *Repository) InsertBatch(ctx context.Context, events []*domain.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, event := range events {
		if event.Version == 0 {
			event.Version = uint64(time.Now().UnixNano())
		}

		properties := event.Properties
		if properties == "" {
			properties = "{}"
		}
		eventContext := event.Context
		if eventContext == "" {
			eventContext = "{}"
		}

		err := batch.Append(
			event.EventID,
			event.SiteKey,
			event.EventName,
			event.UserID,
			event.SessionID,
			event.Timestamp,
			properties,
			eventContext,
			event.CreatedAt,
			event.Version,
		)

		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		insertedCount++
	}

	if insertedCount == 0 {
		return 0, fmt.Errorf("no events could be appended to batch")
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// dimensionExpr renders the SELECT expression for a dimension query: a raw
// column, a JSON path into properties/context, or an array fan-out. The
// paths come from code, never from request input.
func dimensionExpr(q repository.DimensionQuery) string {
	if q.JSONPath == "" {
		return q.Column
	}

	source := "properties"
	if q.Column != "" {
		source = q.Column
	}

	keys := strings.Split(q.JSONPath, ".")
	quoted := make([]string, 0, len(keys))
	for _, k := range keys {
		quoted = append(quoted, "'"+k+"'")
	}
	path := strings.Join(quoted, ", ")

	if q.Unnest {
		return fmt.Sprintf("arrayJoin(JSONExtract(%s, %s, 'Array(String)'))", source, path)
	}
	return fmt.Sprintf("JSONExtractString(%s, %s)", source, path)
}

// DimensionCounts returns raw grouped counts for one dimension of one event
// type. Rows keep store order; the aggregator owns sorting and coalescing.
func (r *Repository) DimensionCounts(ctx context.Context, q repository.DimensionQuery) ([]analytics.GroupCount, error) {
	query := fmt.Sprintf(`
		SELECT
			%s as group_value,
			count() as total
		FROM events FINAL
		WHERE site_key = ? AND event_name = ? AND timestamp >= ? AND timestamp <= ?
		GROUP BY group_value
	`, dimensionExpr(q))

	rows, err := r.client.Conn().Query(ctx, query,
		q.SiteKey, q.EventName, q.From.UnixMilli(), q.To.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query dimension counts: %w", err)
	}
	defer r.closeRows(rows, "dimension counts")

	var groups []analytics.GroupCount
	for rows.Next() {
		var g analytics.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan dimension count row: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// StageCounts returns per-stage totals for the funnel. Stages never seen in
// range stay at zero.
func (r *Repository) StageCounts(ctx context.Context, siteKey string, stages []string, from, to time.Time) (map[string]uint64, error) {
	counts := make(map[string]uint64, len(stages))
	for _, stage := range stages {
		counts[stage] = 0
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(stages)), ", ")
	query := fmt.Sprintf(`
		SELECT
			event_name,
			count() as total
		FROM events FINAL
		WHERE site_key = ? AND event_name IN (%s) AND timestamp >= ? AND timestamp <= ?
		GROUP BY event_name
	`, placeholders)

	args := make([]interface{}, 0, len(stages)+3)
	args = append(args, siteKey)
	for _, stage := range stages {
		args = append(args, stage)
	}
	args = append(args, from.UnixMilli(), to.UnixMilli())

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage counts: %w", err)
	}
	defer r.closeRows(rows, "stage counts")

	for rows.Next() {
		var name string
		var total uint64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("failed to scan stage count row: %w", err)
		}
		counts[name] = total
	}
	return counts, rows.Err()
}

// SearchEvents returns the search submissions in range with their parsed
// filter payloads.
func (r *Repository) SearchEvents(ctx context.Context, q repository.EventQuery) ([]analytics.SearchEvent, error) {
	query := `
		SELECT session_id, properties
		FROM events FINAL
		WHERE site_key = ? AND event_name = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := r.client.Conn().Query(ctx, query,
		q.SiteKey, q.EventName, q.From.UnixMilli(), q.To.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query search events: %w", err)
	}
	defer r.closeRows(rows, "search events")

	var events []analytics.SearchEvent
	for rows.Next() {
		var sessionID, raw string
		if err := rows.Scan(&sessionID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan search event row: %w", err)
		}
		events = append(events, analytics.SearchEvent{
			SessionID:  sessionID,
			Properties: props.Parse(raw),
		})
	}
	return events, rows.Err()
}

// ConvertingSessions returns the distinct session ids that produced at least
// one conversion event in range.
func (r *Repository) ConvertingSessions(ctx context.Context, siteKey string, conversionEvents []string, from, to time.Time) (map[string]struct{}, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(conversionEvents)), ", ")
	query := fmt.Sprintf(`
		SELECT DISTINCT session_id
		FROM events FINAL
		WHERE site_key = ? AND event_name IN (%s) AND timestamp >= ? AND timestamp <= ? AND session_id != ''
	`, placeholders)

	args := make([]interface{}, 0, len(conversionEvents)+3)
	args = append(args, siteKey)
	for _, name := range conversionEvents {
		args = append(args, name)
	}
	args = append(args, from.UnixMilli(), to.UnixMilli())

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query converting sessions: %w", err)
	}
	defer r.closeRows(rows, "converting sessions")

	sessions := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan converting session row: %w", err)
		}
		sessions[id] = struct{}{}
	}
	return sessions, rows.Err()
}

// LeadEvents returns the parsed properties of the intent events in range.
func (r *Repository) LeadEvents(ctx context.Context, q repository.EventQuery) ([]map[string]interface{}, error) {
	query := `
		SELECT properties
		FROM events FINAL
		WHERE site_key = ? AND event_name = ? AND timestamp >= ? AND timestamp <= ?
	`

	rows, err := r.client.Conn().Query(ctx, query,
		q.SiteKey, q.EventName, q.From.UnixMilli(), q.To.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query lead events: %w", err)
	}
	defer r.closeRows(rows, "lead events")

	var events []map[string]interface{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan lead event row: %w", err)
		}
		events = append(events, props.Parse(raw))
	}
	return events, rows.Err()
}

func (r *Repository) closeRows(rows driver.Rows, what string) {
	if err := rows.Close(); err != nil {
		r.log.Error("Failed to close rows", zap.String("query", what), zap.Error(err))
	}
}
