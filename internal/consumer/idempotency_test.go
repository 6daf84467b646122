package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockDeduper is a mock implementation of Deduper
type MockDeduper struct {
	mock.Mock
}

func (m *MockDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func collectEnvelopes(out <-chan *Envelope, wait time.Duration) []*Envelope {
	var envelopes []*Envelope
	timeout := time.After(wait)
	for {
		select {
		case envelope, ok := <-out:
			if !ok {
				return envelopes
			}
			envelopes = append(envelopes, envelope)
		case <-timeout:
			return envelopes
		}
	}
}

func TestIdempotencyStage_ForwardsUnseenEvents(t *testing.T) {
	mockDeduper := new(MockDeduper)
	stage := NewIdempotencyStage(mockDeduper, false, zap.NewNop())

	mockDeduper.On("Seen", mock.Anything, "1").Return(false, nil)
	mockDeduper.On("Seen", mock.Anything, "2").Return(false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 2)
	out := make(chan *Envelope, 2)
	go stage.Start(ctx, in, out)

	in <- createTestEnvelope("1")
	in <- createTestEnvelope("2")
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	assert.Len(t, envelopes, 2)
	mockDeduper.AssertExpectations(t)
}

func TestIdempotencyStage_AcksDuplicates(t *testing.T) {
	mockDeduper := new(MockDeduper)
	stage := NewIdempotencyStage(mockDeduper, false, zap.NewNop())

	mockDeduper.On("Seen", mock.Anything, "1").Return(false, nil)
	mockDeduper.On("Seen", mock.Anything, "dup").Return(true, nil)

	acked := false
	dupEvent := createTestEnvelope("dup").Event
	dup := NewEnvelope(dupEvent, func(ctx context.Context) error {
		acked = true
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 2)
	out := make(chan *Envelope, 2)
	go stage.Start(ctx, in, out)

	in <- createTestEnvelope("1")
	in <- dup
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	assert.Len(t, envelopes, 1)
	assert.Equal(t, "1", envelopes[0].Event.EventID)
	assert.True(t, acked, "duplicate should be acked so it leaves the queue")
	mockDeduper.AssertExpectations(t)
}

func TestIdempotencyStage_FailOpenPassesThrough(t *testing.T) {
	mockDeduper := new(MockDeduper)
	stage := NewIdempotencyStage(mockDeduper, true, zap.NewNop())

	mockDeduper.On("Seen", mock.Anything, "1").Return(false, errors.New("redis down"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 1)
	out := make(chan *Envelope, 1)
	go stage.Start(ctx, in, out)

	in <- createTestEnvelope("1")
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	assert.Len(t, envelopes, 1)
}

func TestIdempotencyStage_FailClosedLeavesForRedelivery(t *testing.T) {
	mockDeduper := new(MockDeduper)
	stage := NewIdempotencyStage(mockDeduper, false, zap.NewNop())

	mockDeduper.On("Seen", mock.Anything, "1").Return(false, errors.New("redis down"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan *Envelope, 1)
	out := make(chan *Envelope, 1)
	go stage.Start(ctx, in, out)

	in <- createTestEnvelope("1")
	close(in)

	envelopes := collectEnvelopes(out, 100*time.Millisecond)

	assert.Empty(t, envelopes)
}
