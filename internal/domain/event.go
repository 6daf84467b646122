package domain

import "time"

// Event represents a behavioral event stored in ClickHouse. Properties and
// Context carry the raw JSON payloads exactly as received; the read path
// parses them on demand.
type Event struct {
	EventID    string    `ch:"event_id"`
	SiteKey    string    `ch:"site_key"`
	EventName  string    `ch:"event_name"`
	UserID     string    `ch:"user_id"`
	SessionID  string    `ch:"session_id"`
	Timestamp  int64     `ch:"timestamp"`
	Properties string    `ch:"properties"`
	Context    string    `ch:"context"`
	CreatedAt  time.Time `ch:"created_at"`
	Version    uint64    `ch:"version"`
}
