package kafka

import (
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/order-console/internal/domain"
)

// ActivityPublisher публикует события активности в заданный topic.
type ActivityPublisher struct {
	producer *Producer
	topic    string
}

// NewActivityPublisher создаёт Kafka-паблишер outbox активности.
// Тот же тип с topic DLQ используется для dead-letter публикаций.
func NewActivityPublisher(producer *Producer, topic string) *ActivityPublisher {
	if topic == "" {
		topic = TopicActivity
	}
	return &ActivityPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Topic возвращает topic, в который пишет паблишер.
func (p *ActivityPublisher) Topic() string {
	return p.topic
}

// Publish отправляет событие; ключ сообщения — идентификатор сущности.
func (p *ActivityPublisher) Publish(event domain.ActivityEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka activity publisher is not initialized")
	}

	key := event.EntityID
	if key == "" {
		key = event.ID
	}

	return p.producer.PublishEvent(p.topic, key, NewActivityMessage(event),
		sarama.RecordHeader{Key: []byte(HeaderEventID), Value: []byte(event.ID)},
		sarama.RecordHeader{Key: []byte(HeaderEventKind), Value: []byte(event.Kind)},
		sarama.RecordHeader{Key: []byte(HeaderSource), Value: []byte(sourceName)},
	)
}

var _ domain.ActivityPublisher = (*ActivityPublisher)(nil)
