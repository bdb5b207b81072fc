// Package kafka publishes ledger events to a kafka topic.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/go-petr/pet-wallet/internal/events"

	"github.com/segmentio/kafka-go"
)

// Topic is the kafka topic completed transactions are published to.
const Topic = "transaction_completed"

// Publisher writes ledger events to kafka.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Publisher writing to the given brokers.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes the event keyed by its transaction reference.
func (p *Publisher) Publish(ctx context.Context, event events.TransactionCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Reference),
		Value: data,
	})
}

// Close closes the underlying kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
