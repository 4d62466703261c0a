// Package service runs the reactive obstacle-avoidance controller: every
// cycle it fetches a scan, reduces it to sector distances and lets the first
// layer that sees an obstacle steer. Close obstacles win over far ones; with
// nothing in range the robot drives straight at full speed.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/slalom/internal/domain/farfield"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/internal/domain/proximity"
	"github.com/okian/slalom/internal/domain/sector"
	"github.com/okian/slalom/pkg/logger"
	"github.com/okian/slalom/pkg/metrics"
)

// RuleStraight tags cycles that ended with the straight-ahead command.
const RuleStraight = "straight"

// ScanSource blocks until the next scan is available.
type ScanSource interface {
	Fetch(ctx context.Context) (model.RawScan, error)
}

// CommandSink applies speed commands to the drivetrain.
type CommandSink interface {
	Dispatch(ctx context.Context, cmd model.SpeedCommand) error
}

// Telemetry accepts command records without blocking.
type Telemetry interface {
	Enqueue(ctx context.Context, rec model.CommandRecord) error
}

// Cycle summarises one pass of the control loop.
type Cycle struct {
	Layer      string
	Rule       string
	Distances  model.DirectionalDistances
	Iterations int  // recovery turns, proximity layer only
	Exhausted  bool // recovery gave up at the iteration cap
	Clamped    bool // far-field command was bounded
	Duration   time.Duration
}

// Stats is a point-in-time view of the controller.
type Stats struct {
	RunID         string                     `json:"run_id"`
	Running       bool                       `json:"running"`
	StartedAt     time.Time                  `json:"started_at,omitempty"`
	Cycles        uint64                     `json:"cycles"`
	Straight      uint64                     `json:"straight"`
	Proximity     uint64                     `json:"proximity"`
	FarField      uint64                     `json:"farfield"`
	Exhausted     uint64                     `json:"exhausted"`
	Commands      uint64                     `json:"commands"`
	LastRule      string                     `json:"last_rule,omitempty"`
	LastCommand   model.SpeedCommand         `json:"last_command"`
	LastDistances model.DirectionalDistances `json:"last_distances"`
}

// Service is the control loop.
type Service struct {
	th            model.Thresholds
	agg           proximity.Aggregator
	maxIterations int
	turnRatio     float64
	clamp         bool
	runID         string
	telemetry     Telemetry

	source *guardedSource
	sink   *guardedSink
	prox   *proximity.Classifier
	far    *farfield.Classifier

	running atomic.Bool

	mu    sync.RWMutex
	stats Stats

	logger logger.Logger
}

// New wires a controller around a scan source and a command sink.
func New(source ScanSource, sink CommandSink, opts ...Option) *Service {
	s := &Service{
		th:            model.DefaultThresholds(),
		maxIterations: 600,
		turnRatio:     0.8,
		clamp:         true,
		runID:         uuid.NewString(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("controller")
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))
	if s.agg == nil {
		s.agg = sector.NewAggregator(sector.WithNoReturnRange(s.th.NoReturnRange))
	}

	s.source = &guardedSource{next: source}
	s.sink = &guardedSink{next: sink, telemetry: s.telemetry, runID: s.runID, logger: s.logger}
	s.prox = proximity.NewClassifier(s.th, s.source, s.sink, s.agg,
		proximity.WithMaxIterations(s.maxIterations),
		proximity.WithTurnRatio(s.turnRatio),
	)
	s.far = farfield.NewClassifier(s.th, s.sink, farfield.WithClamp(s.clamp))
	s.stats.RunID = s.runID

	return s
}

// RunID identifies this controller instance in logs and telemetry.
func (s *Service) RunID() string { return s.runID }

// Running reports whether Run is active.
func (s *Service) Running() bool { return s.running.Load() }

// Run executes control cycles until ctx is canceled, which is a clean stop
// and returns nil. A scan source or command sink failure ends the run with
// an error wrapping ErrScanSource or ErrCommandSink.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.mu.Lock()
	s.stats.StartedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info(ctx, "controller started",
		logger.Float64("stop_distance", s.th.StopDistance()),
		logger.Float64("turn_distance", s.th.TurnDistance()),
		logger.Float64("far_turn_distance", s.th.FarTurnDistance()),
		logger.Int("max_iterations", s.maxIterations),
		logger.Bool("clamp", s.clamp),
	)

	for {
		if ctx.Err() != nil {
			s.logStopped()
			return nil
		}
		if _, err := s.Step(ctx); err != nil {
			if canceledBy(ctx, err) {
				s.logStopped()
				return nil
			}
			s.logger.Error(ctx, "control cycle failed", logger.Error(err))
			return err
		}
	}
}

func (s *Service) logStopped() {
	st := s.Stats()
	s.logger.Info(context.Background(), "controller stopped",
		logger.Uint64("cycles", st.Cycles),
		logger.Uint64("commands", st.Commands),
	)
}

// Step runs a single control cycle. Recovery exhaustion is reported in the
// returned Cycle and is not an error.
func (s *Service) Step(ctx context.Context) (Cycle, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Cycle{}, err
	}

	scan, err := s.source.Fetch(ctx)
	if err != nil {
		return Cycle{}, err
	}
	d := s.agg.Aggregate(scan)
	for _, sec := range model.Sectors {
		metrics.UpdateSectorDistance(string(sec), d.Get(sec))
	}

	cycle := Cycle{Distances: d}

	if dec, ok := s.prox.Classify(d); ok {
		cycle.Layer, cycle.Rule = metrics.LayerProximity, dec.Rule
		err = s.recover(ctx, d, &cycle)
	} else if fdec, fok := s.far.Classify(d); fok {
		cycle.Layer, cycle.Rule = metrics.LayerFarField, fdec.Rule
		err = s.steer(ctx, d, &cycle)
	} else {
		cycle.Layer, cycle.Rule = metrics.LayerStraight, RuleStraight
		s.sink.tag(RuleStraight, d)
		err = s.sink.Dispatch(ctx, model.NewSpeedCommand(model.DirectionStraight, s.th.MaxLinearVelocity, 0))
	}
	if err != nil {
		return cycle, err
	}

	cycle.Duration = time.Since(start)
	s.record(cycle)
	return cycle, nil
}

func (s *Service) recover(ctx context.Context, d model.DirectionalDistances, cycle *Cycle) error {
	s.sink.tag(cycle.Rule, d)
	metrics.RecordRuleFire(metrics.LayerProximity, cycle.Rule)
	s.logger.Debug(ctx, "close obstacle",
		logger.String("rule", cycle.Rule),
		logger.Any("distances", d),
	)

	out, err := s.prox.Handle(ctx, d)
	cycle.Iterations = out.Iterations
	metrics.RecordRecoveryTurns(out.Iterations)
	if errors.Is(err, proximity.ErrRecoveryExhausted) {
		cycle.Exhausted = true
		metrics.RecordRecoveryExhausted()
		s.logger.Warn(ctx, "recovery abandoned",
			logger.String("rule", cycle.Rule),
			logger.Int("turns", out.Iterations),
			logger.Any("distances", out.Final),
		)
		return nil
	}
	return err
}

func (s *Service) steer(ctx context.Context, d model.DirectionalDistances, cycle *Cycle) error {
	s.sink.tag(cycle.Rule, d)
	metrics.RecordRuleFire(metrics.LayerFarField, cycle.Rule)

	out, err := s.far.Handle(ctx, d)
	if err != nil {
		return err
	}
	cycle.Clamped = out.Clamped
	if out.Clamped {
		metrics.RecordClampedCommand()
	}
	s.logger.Debug(ctx, "far obstacle",
		logger.String("rule", cycle.Rule),
		logger.Float64("distance", out.Decision.Distance),
		logger.Float64("linear", out.Command.Linear),
		logger.Float64("angular", out.Command.Angular),
		logger.Bool("clamped", out.Clamped),
	)
	return nil
}

func (s *Service) record(c Cycle) {
	metrics.RecordCycle(c.Layer, float64(c.Duration.Microseconds())/1000)

	seq, last := s.sink.snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Cycles++
	switch c.Layer {
	case metrics.LayerProximity:
		s.stats.Proximity++
	case metrics.LayerFarField:
		s.stats.FarField++
	default:
		s.stats.Straight++
	}
	if c.Exhausted {
		s.stats.Exhausted++
	}
	s.stats.Commands = seq
	s.stats.LastRule = c.Rule
	s.stats.LastCommand = last
	s.stats.LastDistances = c.Distances
}

// Stats returns a copy of the controller counters.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Running = s.running.Load()
	return st
}
