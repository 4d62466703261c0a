package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/okian/slalom/internal/adapters/mq/kafka"
	"github.com/okian/slalom/internal/adapters/mq/mqtt"
	"github.com/okian/slalom/internal/adapters/mq/queue"
	"github.com/okian/slalom/internal/adapters/mq/worker"
	"github.com/okian/slalom/internal/adapters/serial"
	"github.com/okian/slalom/internal/adapters/sim"
	service "github.com/okian/slalom/internal/app"
	"github.com/okian/slalom/internal/config"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/pkg/logger"
)

const (
	simKeepCommands  = 256
	mqttQuiesceMS    = 250
	kafkaWriteBudget = 2 * time.Second
)

// transports holds the opened scan source and command sink together with
// everything that must be released on exit.
type transports struct {
	source  service.ScanSource
	sink    service.CommandSink
	closers []func() error
	l       logger.Logger
}

func (t *transports) onClose(fn func() error) {
	t.closers = append(t.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (t *transports) Close() {
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			t.l.Warn(context.Background(), "transport close failed", logger.Error(err))
		}
	}
	t.closers = nil
}

func openTransports(ctx context.Context, cfg *config.Config, l logger.Logger) (*transports, error) {
	t := &transports{l: l}
	timeout := time.Duration(cfg.MQTTTimeoutMS) * time.Millisecond

	var client mqtt.Client
	if cfg.Source == config.TransportMQTT || cfg.Sink == config.TransportMQTT {
		c, err := mqtt.Dial(ctx, cfg.MQTTBroker, cfg.MQTTClientID, timeout)
		if err != nil {
			return nil, err
		}
		client = c
		t.onClose(func() error {
			c.Disconnect(mqttQuiesceMS)
			return nil
		})
	}

	switch cfg.Source {
	case config.TransportMQTT:
		src, err := mqtt.NewSource(ctx, client, cfg.MQTTScanTopic,
			mqtt.WithBuffer(cfg.ScanBuffer),
			mqtt.WithSourceTimeout(timeout),
			mqtt.WithSourceLogger(l.Named("mqtt")),
		)
		if err != nil {
			t.Close()
			return nil, err
		}
		t.source = src
		t.onClose(src.Close)
	case config.TransportSerial:
		port, err := serial.Open(cfg.SerialScanPort, serial.PortOptions{BaudRate: cfg.SerialBaudRate})
		if err != nil {
			t.Close()
			return nil, err
		}
		src := serial.NewSource(port, cfg.ScanBuffer, l.Named("serial"))
		t.source = src
		t.onClose(src.Close)
	default:
		t.source = sim.NewSource(
			sim.WithScans(sim.Course()...),
			sim.WithLoop(true),
			sim.WithPeriod(time.Duration(cfg.SimPeriodMS)*time.Millisecond),
		)
	}

	switch cfg.Sink {
	case config.TransportMQTT:
		t.sink = mqtt.NewSink(client, cfg.MQTTCmdTopic, mqtt.WithSinkTimeout(timeout))
	case config.TransportSerial:
		port, err := serial.Open(cfg.SerialDrivePort, serial.PortOptions{BaudRate: cfg.SerialBaudRate})
		if err != nil {
			t.Close()
			return nil, err
		}
		sink := serial.NewSink(port)
		t.sink = sink
		t.onClose(sink.Close)
	default:
		t.sink = sim.NewRecorder(sim.WithKeep(simKeepCommands))
	}

	l.Info(ctx, "transports ready",
		logger.String("source", cfg.Source),
		logger.String("sink", cfg.Sink),
	)
	return t, nil
}

// telemetry tees dispatched commands to Kafka through a bounded queue.
type telemetry struct {
	queue     *queue.InMemoryQueue[model.CommandRecord]
	publisher io.Closer
	worker    *worker.Worker
	l         logger.Logger
}

// startTelemetry returns nil when no Kafka brokers are configured.
func startTelemetry(cfg *config.Config, l logger.Logger) (*telemetry, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nil, nil //nolint:nilnil // telemetry is optional
	}

	pub, err := kafka.NewPublisher(brokers, cfg.KafkaTopic, kafka.WithWriteTimeout(kafkaWriteBudget))
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	q := queue.NewInMemoryQueue[model.CommandRecord](queue.WithCapacity(cfg.TelemetryQueueSize))
	w := worker.New(q, pub, worker.WithLogger(l))

	// The worker outlives the controller's ctx so queued records can drain.
	go w.Run(context.Background())

	l.Info(context.Background(), "command telemetry enabled",
		logger.Any("brokers", brokers),
		logger.String("topic", cfg.KafkaTopic),
	)
	return &telemetry{queue: q, publisher: pub, worker: w, l: l}, nil
}

// stop closes the queue, waits for the worker to drain it and closes the publisher.
func (t *telemetry) stop(ctx context.Context) {
	_ = t.queue.Close()
	if err := t.worker.Shutdown(ctx); err != nil {
		t.l.Warn(ctx, "telemetry drain incomplete", logger.Error(err))
	}
	published, failed := t.worker.Stats()
	t.l.Info(ctx, "telemetry stopped",
		logger.Uint64("published", published),
		logger.Uint64("failed", failed),
	)
	if err := t.publisher.Close(); err != nil {
		t.l.Warn(ctx, "telemetry publisher close failed", logger.Error(err))
	}
}
