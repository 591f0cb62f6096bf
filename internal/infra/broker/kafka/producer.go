package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

// Producer publishes outbox events synchronously. Acks from all in-sync
// replicas plus idempotent writes keep the stream duplicate-free even when
// the outbox worker retries a batch.
type Producer struct {
	inner sarama.SyncProducer
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	if cfg.ClientID == "" || cfg.ClientID == "sarama" {
		cfg.ClientID = "staybook-outbox"
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	// idempotent production caps in-flight requests at one
	cfg.Net.MaxOpenRequests = 1
	inner, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: connect: %w", err)
	}
	return &Producer{inner: inner}, nil
}

// Publish sends one event keyed by aggregate ID, so all events for a listing
// or booking land on the same partition in order.
func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hs := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	_, _, err := p.inner.SendMessage(&sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	})
	if err != nil {
		return fmt.Errorf("kafka: publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.inner == nil {
		return nil
	}
	return p.inner.Close()
}
