package consumer

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/metrics"
)

// Deduper records processed event ids and reports replays.
type Deduper interface {
	// Seen marks the id as processed and reports whether it was already
	// marked before.
	Seen(ctx context.Context, eventID string) (bool, error)
}

const dedupKeyPrefix = "event:seen:"

// RedisDeduper implements Deduper with a SET NX per event id.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper with the given retention window.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	set, err := d.client.SetNX(ctx, dedupKeyPrefix+eventID, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// IdempotencyStage drops events whose id was already processed. The store is
// ReplacingMergeTree so duplicates are eventually collapsed anyway; this
// stage just keeps them from being written and counted twice before a merge.
type IdempotencyStage struct {
	deduper  Deduper
	failOpen bool
	log      *zap.Logger
}

// NewIdempotencyStage creates a new idempotency stage. With failOpen set,
// deduper errors pass events through instead of blocking the pipeline.
func NewIdempotencyStage(deduper Deduper, failOpen bool, log *zap.Logger) *IdempotencyStage {
	return &IdempotencyStage{
		deduper:  deduper,
		failOpen: failOpen,
		log:      log,
	}
}

// Start filters envelopes, forwarding unseen events and acking duplicates.
func (s *IdempotencyStage) Start(ctx context.Context, in <-chan *Envelope, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Idempotency stage shutting down")
			return
		case envelope, ok := <-in:
			if !ok {
				s.log.Info("Idempotency stage input channel closed")
				return
			}

			if s.drop(ctx, envelope) {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
			}
		}
	}
}

// drop reports whether the envelope is a duplicate and handles its ack.
func (s *IdempotencyStage) drop(ctx context.Context, envelope *Envelope) bool {
	seen, err := s.deduper.Seen(ctx, envelope.Event.EventID)
	if err != nil {
		if s.failOpen {
			s.log.Warn("Deduper unavailable, passing event through",
				zap.String("event_id", envelope.Event.EventID),
				zap.Error(err))
			return false
		}
		s.log.Error("Deduper unavailable, leaving event for redelivery",
			zap.String("event_id", envelope.Event.EventID),
			zap.Error(err))
		if err := envelope.Nack(ctx); err != nil {
			s.log.Error("Failed to nack envelope", zap.Error(err))
		}
		return true
	}

	if !seen {
		return false
	}

	metrics.DuplicateEvents.Inc()
	s.log.Debug("Skipping duplicate event",
		zap.String("event_id", envelope.Event.EventID))
	if err := envelope.Ack(ctx); err != nil {
		s.log.Error("Failed to ack duplicate envelope", zap.Error(err))
	}
	return true
}
