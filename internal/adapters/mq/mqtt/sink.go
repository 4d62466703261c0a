package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/slalom/internal/domain/model"
)

// Sink publishes speed commands to a topic.
type Sink struct {
	client  Client
	topic   string
	qos     byte
	timeout time.Duration
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithSinkQoS sets the publish quality of service.
func WithSinkQoS(qos byte) SinkOption {
	return func(s *Sink) { s.qos = qos }
}

// WithSinkTimeout bounds how long Dispatch waits for the broker.
func WithSinkTimeout(d time.Duration) SinkOption {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSink builds a command sink on topic.
func NewSink(client Client, topic string, opts ...SinkOption) *Sink {
	s := &Sink{client: client, topic: topic, qos: 1, timeout: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch publishes cmd and waits for the broker to accept it.
func (s *Sink) Dispatch(ctx context.Context, cmd model.SpeedCommand) error {
	if !s.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	if err := wait(ctx, s.client.Publish(s.topic, s.qos, false, payload), s.timeout); err != nil {
		return fmt.Errorf("publish %s: %w", s.topic, err)
	}
	return nil
}
