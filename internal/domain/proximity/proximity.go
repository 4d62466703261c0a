// Package proximity handles obstacles inside the hard stop radius by turning in
// place until the blocking sectors clear.
package proximity

import (
	"context"
	"fmt"

	"github.com/okian/slalom/internal/domain/model"
)

// Default recovery configuration constants.
const (
	defaultTurnRatio     = 0.8
	defaultMaxIterations = 600
)

// ScanFetcher delivers a fresh scan on every call.
type ScanFetcher interface {
	Fetch(ctx context.Context) (model.RawScan, error)
}

// Dispatcher applies a command to the drivetrain.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd model.SpeedCommand) error
}

// Aggregator reduces a scan to directional distances.
type Aggregator interface {
	Aggregate(scan model.RawScan) model.DirectionalDistances
}

// Outcome describes what Handle did.
type Outcome struct {
	Encounter  bool
	Decision   Decision
	Iterations int                        // turn commands dispatched
	Final      model.DirectionalDistances // last distances observed
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithMaxIterations caps the number of turn commands in one recovery. Zero or a
// negative value removes the cap.
func WithMaxIterations(n int) Option {
	return func(c *Classifier) {
		c.maxIterations = n
	}
}

// WithTurnRatio sets the recovery turn rate as a fraction of the maximum angular speed.
func WithTurnRatio(r float64) Option {
	return func(c *Classifier) {
		if r > 0 && r <= 1 {
			c.turnRatio = r
		}
	}
}

// WithRules replaces the rule list.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		if len(rules) > 0 {
			c.rules = rules
		}
	}
}

// Classifier detects close obstacles and runs the blocking recovery turn.
type Classifier struct {
	th            model.Thresholds
	source        ScanFetcher
	sink          Dispatcher
	agg           Aggregator
	rules         []Rule
	turnRatio     float64
	maxIterations int
}

// NewClassifier creates a classifier that re-senses through source and agg and
// turns through sink.
func NewClassifier(th model.Thresholds, source ScanFetcher, sink Dispatcher, agg Aggregator, opts ...Option) *Classifier {
	c := &Classifier{
		th:            th,
		source:        source,
		sink:          sink,
		agg:           agg,
		rules:         DefaultRules(),
		turnRatio:     defaultTurnRatio,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the first matching rule's decision without side effects.
func (c *Classifier) Classify(d model.DirectionalDistances) (Decision, bool) {
	for _, r := range c.rules {
		if r.When(d, c.th) {
			dir, until := r.Decide(d)
			return Decision{Rule: r.Name, Direction: dir, Until: until}, true
		}
	}
	return Decision{}, false
}

// Cleared reports whether every governing sector has reached the clear distance.
func (c *Classifier) Cleared(d model.DirectionalDistances, until []model.Sector) bool {
	limit := c.th.ClearDistance()
	for _, s := range until {
		if d.Get(s) < limit {
			return false
		}
	}
	return true
}

// Handle checks d for a close obstacle. When one is found it turns in place,
// re-sensing after every command, until the governing sectors clear. It returns
// with Encounter unset and no side effect when nothing is close.
//
// Cancellation of ctx is checked before every command; the recovery then stops
// without dispatching and ctx.Err() is returned. Reaching the iteration cap
// returns ErrRecoveryExhausted with the outcome filled in.
func (c *Classifier) Handle(ctx context.Context, d model.DirectionalDistances) (Outcome, error) {
	dec, ok := c.Classify(d)
	if !ok {
		return Outcome{Final: d}, nil
	}

	out := Outcome{Encounter: true, Decision: dec, Final: d}
	cmd := model.NewSpeedCommand(dec.Direction, 0, c.turnRatio*c.th.MaxAngularSpeed)

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if c.maxIterations > 0 && out.Iterations >= c.maxIterations {
			return out, fmt.Errorf("%w: rule %s after %d turns", ErrRecoveryExhausted, dec.Rule, out.Iterations)
		}

		if err := c.sink.Dispatch(ctx, cmd); err != nil {
			return out, fmt.Errorf("recovery %s: %w", dec.Rule, err)
		}
		out.Iterations++

		scan, err := c.source.Fetch(ctx)
		if err != nil {
			return out, fmt.Errorf("recovery %s: %w", dec.Rule, err)
		}
		out.Final = c.agg.Aggregate(scan)
		if c.Cleared(out.Final, dec.Until) {
			return out, nil
		}
	}
}
