package ws

import (
	"encoding/json"
	"time"
)

// Event types - Client → Server
const (
	EventTypeSubscribe   = "topic.subscribe"
	EventTypeUnsubscribe = "topic.unsubscribe"
	EventTypePing        = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageNew     = "message.new"
	EventTypeMessageDeleted = "message.deleted"
	EventTypePong           = "pong"
	EventTypeError          = "error"
)

// Event is the envelope for all WebSocket traffic. Server → client
// events carry the topic they were published on so a client viewing
// several scopes can route them.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type TopicPayload struct {
	Topic string `json:"topic"`
}

// --- Server → Client payloads ---

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType, topic string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Topic:     topic,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
