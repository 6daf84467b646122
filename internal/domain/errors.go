package domain

import "errors"

var (
	// ErrSiteNotFound is returned when a site key does not resolve to a
	// registered tenant. Checked before any aggregation work.
	ErrSiteNotFound = errors.New("site not found")

	// ErrInvalidBatchSize is returned when an ingestion batch is empty or
	// exceeds the maximum accepted size.
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 500")

	// ErrMissingEventName is returned when an ingested event has no name.
	ErrMissingEventName = errors.New("event name is required")
)
