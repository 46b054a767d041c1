package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// Topics для Kafka
const (
	TopicActivity    = "order-console.activity"
	TopicActivityDLQ = "order-console.activity.dlq"
)

// Kafka headers сообщений активности
const (
	HeaderEventID   = "x-event-id"
	HeaderEventKind = "x-event-kind"
	HeaderSource    = "x-source"
)

const sourceName = "order-console"

// ActivityMessage — JSON-представление события активности в Kafka.
type ActivityMessage struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	PublishedAt time.Time       `json:"published_at"`
}

// NewActivityMessage собирает сообщение из доменного события.
func NewActivityMessage(event domain.ActivityEvent) ActivityMessage {
	msg := ActivityMessage{
		ID:          event.ID,
		Kind:        string(event.Kind),
		EntityType:  event.EntityType,
		EntityID:    event.EntityID,
		OccurredAt:  event.Occurred.UTC(),
		PublishedAt: time.Now().UTC(),
	}
	if len(event.Payload) > 0 && json.Valid(event.Payload) {
		msg.Payload = json.RawMessage(event.Payload)
	}
	return msg
}

// ParseActivityMessage разбирает значение сообщения из топика активности.
func ParseActivityMessage(value []byte) (ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return ActivityMessage{}, err
	}
	return msg, nil
}
