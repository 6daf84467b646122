// Package metrics holds the Prometheus collectors shared by the API and the
// consumer. Everything registers on the default registry and is served by
// the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsPublished counts events accepted by the ingestion gateway and
	// handed to the queue.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "events_published_total",
		Help:      "Events published to the queue by the ingestion gateway.",
	}, []string{"site_key"})

	// EventsReceived counts raw queue messages pulled by the consumer.
	EventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "consumer_messages_received_total",
		Help:      "Messages received from the queue.",
	})

	// ParseFailures counts malformed queue messages dropped by the parser.
	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "consumer_parse_failures_total",
		Help:      "Queue messages dropped because they could not be parsed.",
	})

	// DuplicateEvents counts events skipped by the idempotency stage.
	DuplicateEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "consumer_duplicate_events_total",
		Help:      "Events skipped because their id was already processed.",
	})

	// EventsInserted counts events written to the event store.
	EventsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "analytics",
		Name:      "consumer_events_inserted_total",
		Help:      "Events inserted into the event store.",
	})

	// BatchFlushDuration observes how long a batch insert takes.
	BatchFlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "analytics",
		Name:      "consumer_batch_flush_seconds",
		Help:      "Duration of event store batch inserts.",
		Buckets:   prometheus.DefBuckets,
	})

	// AnalyzerDuration observes analyzer request handling per operation.
	AnalyzerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "analytics",
		Name:      "analyzer_request_seconds",
		Help:      "Duration of analyzer requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"analyzer"})
)
