package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"lineage/internal/changefeed"
	"lineage/internal/platform/kafka"
)

// Producer is the subset of kafka.Producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, records []kafka.Record) error
}

// KafkaPublisher writes events keyed by event id; the value is the JSON event.
type KafkaPublisher struct {
	producer Producer
}

func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []changefeed.Event) error {
	records := make([]kafka.Record, len(events))
	for i, ev := range events {
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.ID, err)
		}
		records[i] = kafka.Record{Key: []byte(ev.ID.String()), Value: body}
	}
	return p.producer.Produce(ctx, records)
}
