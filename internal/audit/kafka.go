package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher fans audit entries out to a Kafka topic so downstream
// reporting can consume them without touching the primary store. Delivery is
// asynchronous and best-effort, matching the fire-and-forget audit contract.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish produces the entry asynchronously. Errors surface only in the
// delivery callback and are logged, never returned.
func (p *KafkaPublisher) Publish(ctx context.Context, entry Entry) {
	value, err := json.Marshal(entry)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal audit entry", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.OperatorID),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit publish failed",
				"topic", p.topic,
				"action", entry.Action,
				"error", err,
			)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
