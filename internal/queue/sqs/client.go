package sqs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	envConfig "github.com/Couks/projeto-tfc-sub000/internal/config"
	"github.com/Couks/projeto-tfc-sub000/internal/domain"
)

// Client represents an SQS client
type Client struct {
	client *sqs.Client
	config envConfig.SQS
	log    *zap.Logger
}

// NewClient creates a new SQS client
func NewClient(ctx context.Context, SQSConfig envConfig.SQS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(SQSConfig.Region),
	}

	var clientOpts []func(*sqs.Options)

	// Configure for local development with ElasticMQ
	if SQSConfig.Endpoint != "" {
		log.Info("Configuring SQS for local development",
			zap.String("endpoint", SQSConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(SQSConfig.Endpoint)
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	sqsClient := sqs.NewFromConfig(cfg, clientOpts...)

	log.Info("SQS client created",
		zap.String("region", SQSConfig.Region),
		zap.String("queue_url", SQSConfig.QueueURL))

	return &Client{
		client: sqsClient,
		config: SQSConfig,
		log:    log,
	}, nil
}

// ReceiveMessages receives messages from SQS
func (c *Client) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	return c.client.ReceiveMessage(ctx, input)
}

// DeleteMessage deletes a message from SQS
func (c *Client) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	return c.client.DeleteMessage(ctx, input)
}

// QueueURL returns the configured queue URL
func (c *Client) QueueURL() string {
	return c.config.QueueURL
}

// sendBatchMax is the SQS SendMessageBatch entry limit.
const sendBatchMax = 10

func marshalEventBody(event *domain.Event) (string, error) {
	bodyJSON, err := json.Marshal(map[string]interface{}{
		"event_id":   event.EventID,
		"site_key":   event.SiteKey,
		"event_name": event.EventName,
		"user_id":    event.UserID,
		"session_id": event.SessionID,
		"timestamp":  event.Timestamp,
		"properties": json.RawMessage(event.Properties),
		"context":    json.RawMessage(event.Context),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}
	return string(bodyJSON), nil
}

func eventAttributes(event *domain.Event) map[string]types.MessageAttributeValue {
	return map[string]types.MessageAttributeValue{
		"EventName": {
			DataType:    aws.String("String"),
			StringValue: aws.String(event.EventName),
		},
		"SiteKey": {
			DataType:    aws.String("String"),
			StringValue: aws.String(event.SiteKey),
		},
	}
}

// PublishEvent publishes an enriched event to SQS
func (c *Client) PublishEvent(ctx context.Context, event *domain.Event) error {
	body, err := marshalEventBody(event)
	if err != nil {
		c.log.Error("Failed to marshal event",
			zap.String("event_id", event.EventID),
			zap.String("event_name", event.EventName),
			zap.Error(err))
		return err
	}

	_, err = c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(c.config.QueueURL),
		MessageBody:       aws.String(body),
		MessageAttributes: eventAttributes(event),
	})
	if err != nil {
		c.log.Error("Failed to send message to SQS",
			zap.String("event_id", event.EventID),
			zap.String("event_name", event.EventName),
			zap.Error(err))
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	c.log.Info("Event published to SQS",
		zap.String("event_id", event.EventID),
		zap.String("event_name", event.EventName))

	return nil
}

// PublishEvents publishes a chunk of events through SendMessageBatch calls
// of up to ten entries each. The returned slice is index-aligned with the
// input; a nil entry means the event was accepted by the queue.
func (c *Client) PublishEvents(ctx context.Context, events []*domain.Event) []error {
	errs := make([]error, len(events))

	for start := 0; start < len(events); start += sendBatchMax {
		end := start + sendBatchMax
		if end > len(events) {
			end = len(events)
		}

		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for i := start; i < end; i++ {
			body, err := marshalEventBody(events[i])
			if err != nil {
				errs[i] = err
				continue
			}
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:                aws.String(strconv.Itoa(i)),
				MessageBody:       aws.String(body),
				MessageAttributes: eventAttributes(events[i]),
			})
		}
		if len(entries) == 0 {
			continue
		}

		out, err := c.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(c.config.QueueURL),
			Entries:  entries,
		})
		if err != nil {
			c.log.Error("Failed to send message batch to SQS",
				zap.Int("entries", len(entries)),
				zap.Error(err))
			for i := start; i < end; i++ {
				if errs[i] == nil {
					errs[i] = fmt.Errorf("failed to send message batch to SQS: %w", err)
				}
			}
			continue
		}

		for _, failed := range out.Failed {
			idx, convErr := strconv.Atoi(aws.ToString(failed.Id))
			if convErr != nil || idx < 0 || idx >= len(events) {
				continue
			}
			errs[idx] = fmt.Errorf("failed to send message to SQS: %s", aws.ToString(failed.Message))
		}
	}

	return errs
}
