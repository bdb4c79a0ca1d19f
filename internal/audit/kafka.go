package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"ecotrace/internal/platform/kafka"
)

// KafkaSink publishes audit events to the audit topic, keyed by client id so
// one application's trail stays ordered.
type KafkaSink struct {
	producer *kafka.Producer
}

func NewKafkaSink(producer *kafka.Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, event.ClientID, payload)
}
