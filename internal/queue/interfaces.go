package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/Couks/projeto-tfc-sub000/internal/domain"
)

// QueuePublisher puts domain events onto the ingestion queue. Implemented
// by the SQS client; the ingestion gateway publishes through this.
type QueuePublisher interface {
	PublishEvent(ctx context.Context, event *domain.Event) error

	// PublishEvents publishes a chunk of events as batched sends and
	// reports the outcome per event: the returned slice is index-aligned
	// with the input, nil meaning published.
	PublishEvents(ctx context.Context, events []*domain.Event) []error
}

// QueueConsumer is the slice of the SQS API the pipeline pulls messages
// through. Kept at the raw input/output level so the receiver controls
// batching and long polling.
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
