package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/domain"
	"github.com/Couks/projeto-tfc-sub000/internal/dto"
	"github.com/Couks/projeto-tfc-sub000/internal/queue"
	"github.com/Couks/projeto-tfc-sub000/internal/repository"
)

const (
	maxBatchSize = 500
	// chunkSize bounds how many events of a batch are published before the
	// next chunk starts; chunks are sequential and independent, so a failed
	// chunk never rolls back the ones already published.
	chunkSize = 100
)

// IngestService is the event ingestion gateway: it validates, enriches and
// publishes events to the queue. Persistence happens in the consumer.
type IngestService struct {
	publisher queue.QueuePublisher
	sites     repository.SiteRepository
	log       *zap.Logger
	now       func() time.Time
}

// NewIngestService creates a new ingest service
func NewIngestService(publisher queue.QueuePublisher, sites repository.SiteRepository, log *zap.Logger) *IngestService {
	return &IngestService{
		publisher: publisher,
		sites:     sites,
		log:       log,
		now:       time.Now,
	}
}

// computeEventID generates a deterministic event ID from the fields that
// identify a submission, so honest retries dedupe downstream.
func computeEventID(siteKey string, req *dto.TrackEventRequest, timestamp int64) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		siteKey,
		req.EventName,
		req.UserID,
		req.SessionID,
		timestamp,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// anonymizeIP strips the host-identifying tail of an address before it is
// stored: the last octet for IPv4, everything past the /48 for IPv6.
func anonymizeIP(raw string) string {
	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		masked := v4.Mask(net.CIDRMask(24, 32))
		return masked.String()
	}
	masked := ip.Mask(net.CIDRMask(48, 128))
	return masked.String()
}

func marshalOrEmpty(m map[string]interface{}) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// buildEvent validates one request and produces the enriched event row.
func (s *IngestService) buildEvent(siteKey string, req *dto.TrackEventRequest, clientIP, userAgent string) (*domain.Event, error) {
	if req.EventName == "" {
		return nil, domain.ErrMissingEventName
	}

	arrival := s.now()
	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = arrival.UnixMilli()
	}

	eventContext := make(map[string]interface{}, len(req.Context)+3)
	for k, v := range req.Context {
		eventContext[k] = v
	}
	eventContext["serverTimestamp"] = arrival.Format(time.RFC3339)
	if ip := anonymizeIP(clientIP); ip != "" {
		eventContext["ip"] = ip
	}
	if userAgent != "" {
		eventContext["userAgent"] = userAgent
	}

	return &domain.Event{
		EventID:    computeEventID(siteKey, req, timestamp),
		SiteKey:    siteKey,
		EventName:  req.EventName,
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Timestamp:  timestamp,
		Properties: marshalOrEmpty(req.Properties),
		Context:    marshalOrEmpty(eventContext),
		CreatedAt:  arrival,
	}, nil
}

// TrackEvent accepts, enriches and publishes a single event.
func (s *IngestService) TrackEvent(ctx context.Context, siteKey string, req *dto.TrackEventRequest, clientIP, userAgent string) (string, error) {
	exists, err := s.sites.Exists(ctx, siteKey)
	if err != nil {
		return "", fmt.Errorf("failed to verify site: %w", err)
	}
	if !exists {
		return "", domain.ErrSiteNotFound
	}

	event, err := s.buildEvent(siteKey, req, clientIP, userAgent)
	if err != nil {
		return "", err
	}

	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		return "", fmt.Errorf("failed to publish event to queue: %w", err)
	}

	return event.EventID, nil
}

// TrackEventsBatch accepts a batch of 1..500 events and publishes them in
// sequential chunks of 100. Publication is at-least-once and non-atomic: a
// failure in one chunk leaves earlier chunks published.
func (s *IngestService) TrackEventsBatch(ctx context.Context, siteKey string, req *dto.TrackEventsBatchRequest, clientIP, userAgent string) (*dto.TrackEventsBatchResponse, error) {
	if len(req.Events) == 0 || len(req.Events) > maxBatchSize {
		return nil, domain.ErrInvalidBatchSize
	}

	exists, err := s.sites.Exists(ctx, siteKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify site: %w", err)
	}
	if !exists {
		return nil, domain.ErrSiteNotFound
	}

	var eventIDs []string
	var errs []string

	for start := 0; start < len(req.Events); start += chunkSize {
		end := start + chunkSize
		if end > len(req.Events) {
			end = len(req.Events)
		}

		chunk := make([]*domain.Event, 0, end-start)
		indexes := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			event, err := s.buildEvent(siteKey, &req.Events[i], clientIP, userAgent)
			if err != nil {
				errs = append(errs, fmt.Sprintf("event %d: %v", i, err))
				continue
			}
			chunk = append(chunk, event)
			indexes = append(indexes, i)
		}
		if len(chunk) == 0 {
			continue
		}

		pubErrs := s.publisher.PublishEvents(ctx, chunk)
		for j, event := range chunk {
			if j < len(pubErrs) && pubErrs[j] != nil {
				errs = append(errs, fmt.Sprintf("event %d: %v", indexes[j], pubErrs[j]))
				s.log.Warn("Failed to publish event in batch",
					zap.Int("index", indexes[j]),
					zap.String("event_name", event.EventName),
					zap.Error(pubErrs[j]))
				continue
			}
			eventIDs = append(eventIDs, event.EventID)
		}

		s.log.Debug("Batch chunk published",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("accepted_so_far", len(eventIDs)))
	}

	return &dto.TrackEventsBatchResponse{
		Accepted: len(eventIDs),
		Rejected: len(errs),
		EventIDs: eventIDs,
		Errors:   errs,
	}, nil
}
