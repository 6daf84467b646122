package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Couks/projeto-tfc-sub000/internal/domain"
)

// MessageParser turns a raw queue message body into a domain event.
type MessageParser interface {
	Parse(body []byte) (*domain.Event, error)
}

// JSONEventParser implements MessageParser for the JSON payload produced by
// the ingestion gateway.
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON message body into an Event. Events without a site key
// or name are rejected so they never reach the store.
func (p *JSONEventParser) Parse(body []byte) (*domain.Event, error) {
	var msgBody map[string]interface{}
	if err := json.Unmarshal(body, &msgBody); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	event := &domain.Event{
		EventID:    getStringField(msgBody, "event_id"),
		SiteKey:    getStringField(msgBody, "site_key"),
		EventName:  getStringField(msgBody, "event_name"),
		UserID:     getStringField(msgBody, "user_id"),
		SessionID:  getStringField(msgBody, "session_id"),
		Timestamp:  getInt64Field(msgBody, "timestamp"),
		Properties: getObjectField(msgBody, "properties"),
		Context:    getObjectField(msgBody, "context"),
		CreatedAt:  time.Now(),
		Version:    uint64(time.Now().UnixNano()),
	}

	if event.SiteKey == "" {
		return nil, fmt.Errorf("message has no site_key")
	}
	if event.EventName == "" {
		return nil, fmt.Errorf("message has no event_name")
	}

	return event, nil
}

// Helper functions for extracting fields from parsed JSON
func getStringField(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getInt64Field(m map[string]interface{}, key string) int64 {
	if val, ok := m[key].(float64); ok {
		return int64(val)
	}
	return 0
}

func getObjectField(m map[string]interface{}, key string) string {
	obj, ok := m[key].(map[string]interface{})
	if !ok || len(obj) == 0 {
		return "{}"
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return "{}"
	}
	return string(data)
}
