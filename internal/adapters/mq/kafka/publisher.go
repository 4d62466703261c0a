// Package kafka publishes command records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/okian/slalom/internal/domain/model"
)

// ErrNoBrokers is returned when a publisher is built without brokers.
var ErrNoBrokers = errors.New("kafka: no brokers")

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithWriter replaces the broker writer, mainly for tests.
func WithWriter(w MessageWriter) Option {
	return func(p *Publisher) {
		if w != nil {
			p.writer = w
		}
	}
}

// WithWriteTimeout bounds a single publish.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// Publisher writes one JSON message per command record, keyed by run ID so
// that a run stays on one partition and keeps its order.
type Publisher struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
}

// NewPublisher builds a publisher for topic on brokers.
func NewPublisher(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	p := &Publisher{topic: topic, timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(p)
	}
	if p.writer == nil {
		if len(brokers) == 0 {
			return nil, ErrNoBrokers
		}
		p.writer = &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		}
	}
	return p, nil
}

// Publish encodes rec and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, rec model.CommandRecord) error { //nolint:gocritic // hugeParam: mirrors the worker's Publisher contract
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %d: %w", rec.Seq, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(rec.RunID),
		Value: payload,
		Time:  rec.TS,
		Headers: []kafkago.Header{
			{Key: "seq", Value: []byte(strconv.FormatUint(rec.Seq, 10))},
			{Key: "rule", Value: []byte(rec.Rule)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
