// Package events publishes booking events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	w     messageWriter
	topic string
}

func NewKafka(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic cannot be empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // same hotel, same partition
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{w: w, topic: topic}, nil
}

func newWithWriter(w messageWriter, topic string) *Publisher { return &Publisher{w: w, topic: topic} }

// Publish writes one event keyed by hotel id.
func (p *Publisher) Publish(ctx context.Context, e domain.BookingEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	start := time.Now()
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Record.HotelID),
		Value: body,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	status := 200
	if err != nil {
		status = 500
	}
	observability.ObserveExternal("kafka", p.topic, status, time.Since(start))
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error { return p.w.Close() }

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, domain.BookingEvent) error { return nil }
