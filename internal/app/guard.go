package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/pkg/logger"
	"github.com/okian/slalom/pkg/metrics"
)

// canceledBy reports whether err is ctx's own cancellation rather than a
// transport fault.
func canceledBy(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

// guardedSource times every fetch and marks failures as ErrScanSource.
type guardedSource struct {
	next ScanSource
}

func (g *guardedSource) Fetch(ctx context.Context) (model.RawScan, error) {
	start := time.Now()
	scan, err := g.next.Fetch(ctx)
	metrics.RecordScanFetch(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		if canceledBy(ctx, err) {
			return model.RawScan{}, err
		}
		metrics.RecordIOError(metrics.ComponentSource)
		return model.RawScan{}, fmt.Errorf("%w: %w", ErrScanSource, err)
	}
	return scan, nil
}

// guardedSink marks failures as ErrCommandSink and tees successful commands
// into telemetry. The record is tagged with the rule set by the controller
// before it hands control to a layer.
type guardedSink struct {
	next      CommandSink
	telemetry Telemetry
	runID     string
	logger    logger.Logger

	mu   sync.Mutex
	seq  uint64
	rule string
	dist model.DirectionalDistances
	last model.SpeedCommand
}

func (g *guardedSink) tag(rule string, d model.DirectionalDistances) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rule = rule
	g.dist = d
}

func (g *guardedSink) Dispatch(ctx context.Context, cmd model.SpeedCommand) error {
	if err := g.next.Dispatch(ctx, cmd); err != nil {
		if canceledBy(ctx, err) {
			return err
		}
		metrics.RecordIOError(metrics.ComponentSink)
		return fmt.Errorf("%w: %w", ErrCommandSink, err)
	}
	metrics.RecordCommand(cmd.Direction.String(), cmd.Linear, cmd.Angular)

	g.mu.Lock()
	g.seq++
	g.last = cmd
	rec := model.CommandRecord{
		RunID:     g.runID,
		Seq:       g.seq,
		TS:        time.Now(),
		Rule:      g.rule,
		Command:   cmd,
		Distances: g.dist,
	}
	g.mu.Unlock()

	if g.telemetry != nil {
		if err := g.telemetry.Enqueue(ctx, rec); err != nil {
			g.logger.Debug(ctx, "telemetry record dropped", logger.Uint64("seq", rec.Seq), logger.Error(err))
		}
	}
	return nil
}

func (g *guardedSink) snapshot() (uint64, model.SpeedCommand) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq, g.last
}
