package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/slalom/internal/adapters/mq/queue"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/pkg/logger"
	"github.com/okian/slalom/pkg/metrics"
)

const transportName = "mqtt"

type scanPayload struct {
	Ranges []float64 `json:"ranges"`
}

// DecodeScan parses one scan message.
func DecodeScan(payload []byte, ts time.Time) (model.RawScan, error) {
	var p scanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.RawScan{}, fmt.Errorf("%w: %w", model.ErrMalformedScan, err)
	}
	return model.NewRawScan(p.Ranges, ts)
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithBuffer sets how many decoded scans may wait for Fetch.
func WithBuffer(n int) SourceOption {
	return func(s *Source) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithQoS sets the subscription quality of service.
func WithQoS(qos byte) SourceOption {
	return func(s *Source) { s.qos = qos }
}

// WithSourceTimeout bounds the subscribe handshake.
func WithSourceTimeout(d time.Duration) SourceOption {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSourceLogger sets the logger used for dropped payloads.
func WithSourceLogger(l logger.Logger) SourceOption {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// Source turns scan messages on a topic into RawScans. When the buffer is
// full the oldest waiting scan is discarded so Fetch always returns the
// freshest data the broker delivered.
type Source struct {
	client  Client
	topic   string
	qos     byte
	buffer  int
	timeout time.Duration
	logger  logger.Logger

	scans     *queue.Latest[model.RawScan]
	closeOnce sync.Once
}

// NewSource subscribes to topic and starts buffering scans.
func NewSource(ctx context.Context, client Client, topic string, opts ...SourceOption) (*Source, error) {
	s := &Source{
		client:  client,
		topic:   topic,
		qos:     1,
		buffer:  1,
		timeout: 5 * time.Second,
		logger:  logger.Get().Named("mqtt"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.scans = queue.NewLatest[model.RawScan](s.buffer)

	if err := wait(ctx, client.Subscribe(topic, s.qos, s.onMessage), s.timeout); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return s, nil
}

func (s *Source) onMessage(_ paho.Client, msg paho.Message) {
	scan, err := DecodeScan(msg.Payload(), time.Now())
	if err != nil {
		metrics.RecordScanMalformed(transportName)
		s.logger.Debug(context.Background(), "dropping scan payload",
			logger.String("topic", msg.Topic()),
			logger.Error(err),
		)
		return
	}
	metrics.RecordScanReceived(transportName)
	for i := s.scans.Offer(scan); i > 0; i-- {
		metrics.RecordScanDropped(transportName)
	}
}

// Fetch blocks until a scan is available, ctx ends or the source closes.
func (s *Source) Fetch(ctx context.Context) (model.RawScan, error) {
	scan, err := s.scans.Take(ctx)
	if errors.Is(err, queue.ErrClosed) {
		return model.RawScan{}, ErrClosed
	}
	return scan, err
}

// Close unsubscribes; pending and future Fetch calls fail with ErrClosed.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.scans.Close()
		if s.client.IsConnected() {
			err = wait(context.Background(), s.client.Unsubscribe(s.topic), s.timeout)
		}
	})
	return err
}
