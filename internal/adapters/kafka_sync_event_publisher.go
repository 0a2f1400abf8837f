package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
)

var _ SyncEventPublisher = (*KafkaSyncEventPublisher)(nil)
var _ SyncEventPublisher = (*LogSyncEventPublisher)(nil)

// KafkaSyncEventPublisher publishes sync events to a Kafka topic, keyed by
// record id so all events for one record land on the same partition in
// order.
type KafkaSyncEventPublisher struct {
	writer *kafka.Writer
	logger *log.Logger
}

// NewKafkaSyncEventPublisher creates a publisher for the given brokers and
// topic.
func NewKafkaSyncEventPublisher(brokers []string, topic string, logger *log.Logger) *KafkaSyncEventPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &KafkaSyncEventPublisher{
		writer: writer,
		logger: logger,
	}
}

func (p *KafkaSyncEventPublisher) Publish(ctx context.Context, event SyncEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RecordID.String()),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}

	p.logger.Printf("published sync event %s for record %s", event.Type, event.RecordID)
	return nil
}

func (p *KafkaSyncEventPublisher) Close() error {
	return p.writer.Close()
}
