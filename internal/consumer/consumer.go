package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/internal/config"
	"github.com/Couks/projeto-tfc-sub000/internal/queue"
	"github.com/Couks/projeto-tfc-sub000/internal/repository"
)

// Consumer orchestrates a pipeline of stages to process SQS messages
type Consumer struct {
	receiver    *Receiver
	parser      *ParserStage
	idempotency *IdempotencyStage
	batchWriter *BatchWriter
}

// NewConsumer creates a new consumer with a pipeline architecture. A nil
// deduper disables the idempotency stage.
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, deduper Deduper, repo repository.EventRepository, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      100,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONEventParser(), log)

	var idempotency *IdempotencyStage
	if deduper != nil {
		idempotency = NewIdempotencyStage(deduper, cfg.Redis.IdempotencyFailOpen, log)
	}

	batchWriter := NewBatchWriter(repo, BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log)

	return &Consumer{
		receiver:    receiver,
		parser:      parser,
		idempotency: idempotency,
		batchWriter: batchWriter,
	}
}

// Start begins the consumer pipeline
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)
	writerIn := envelopeChan

	var wg sync.WaitGroup

	// Stage 1: Receive messages from SQS
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	// Stage 2: Parse messages into envelopes
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	// Stage 3 (optional): Drop already-processed events
	if c.idempotency != nil {
		dedupedChan := make(chan *Envelope, 100)
		writerIn = dedupedChan
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.idempotency.Start(ctx, envelopeChan, dedupedChan)
		}()
	}

	// Final stage: Batch and write to the repository
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, writerIn)
	}()

	wg.Wait()
	return nil
}
