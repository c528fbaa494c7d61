package audit

import (
	"context"
	"encoding/json"
	"fmt"
)

// Producer publishes a keyed record. platform/kafka.Producer satisfies it.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaSink writes events as JSON records keyed by voter id, so one
// voter's history stays in one partition.
type KafkaSink struct {
	producer Producer
}

// NewKafkaSink constructs a Store that produces events to Kafka.
func NewKafkaSink(p Producer) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (k *KafkaSink) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	var key []byte
	if !event.VoterID.IsNil() {
		key = []byte(event.VoterID.String())
	}
	if err := k.producer.Publish(ctx, key, value); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
