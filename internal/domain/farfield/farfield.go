// Package farfield steers around obstacles that are near enough to matter but
// outside the stop radius. Each encounter yields a single proportional command.
package farfield

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/internal/domain/speed"
)

// Dispatcher applies a command to the drivetrain.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd model.SpeedCommand) error
}

// Decision is the steering chosen for a far obstacle.
type Decision struct {
	Rule      string
	Direction model.Direction
	Distance  float64 // distance fed to the law
	Law       speed.Law
}

// Rule is one entry of the far-obstacle priority list.
type Rule struct {
	Name   string
	When   func(d model.DirectionalDistances, th model.Thresholds) bool
	Decide func(d model.DirectionalDistances) (model.Direction, float64, speed.Law)
}

// DefaultRules returns the far-obstacle rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "front",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.Front < th.TurnDistance()
			},
			Decide: func(d model.DirectionalDistances) (model.Direction, float64, speed.Law) {
				return model.TurnAway(d.Right, d.Left), d.Front, speed.WideLaw
			},
		},
		{
			Name: "blind_both",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.FrontRight < th.TurnDistance() && d.FrontLeft < th.TurnDistance()
			},
			Decide: func(d model.DirectionalDistances) (model.Direction, float64, speed.Law) {
				return model.TurnAway(d.FrontRight, d.FrontLeft), math.Min(d.FrontRight, d.FrontLeft), speed.WideLaw
			},
		},
		{
			Name: "side",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.Right < th.TurnDistance() || d.Left < th.TurnDistance()
			},
			Decide: func(d model.DirectionalDistances) (model.Direction, float64, speed.Law) {
				return model.TurnAway(d.Right, d.Left), math.Min(d.Right, d.Left), speed.WideLaw
			},
		},
		{
			Name: "blind",
			When: func(d model.DirectionalDistances, th model.Thresholds) bool {
				return d.FrontRight < th.FarTurnDistance() || d.FrontLeft < th.FarTurnDistance()
			},
			Decide: func(d model.DirectionalDistances) (model.Direction, float64, speed.Law) {
				return model.TurnAway(d.FrontRight, d.FrontLeft), math.Min(d.FrontRight, d.FrontLeft), speed.BlindLaw
			},
		},
	}
}

// Outcome describes what Handle did.
type Outcome struct {
	Encounter bool
	Decision  Decision
	Command   model.SpeedCommand
	Clamped   bool // the law's output exceeded the platform maxima
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithClamp bounds law outputs by the platform maxima.
func WithClamp(clamp bool) Option {
	return func(c *Classifier) {
		c.clamp = clamp
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

// Classifier detects far obstacles and issues one steering command per encounter.
type Classifier struct {
	th    model.Thresholds
	sink  Dispatcher
	rules []Rule
	clamp bool
	model speed.Model
}

// NewClassifier creates a classifier dispatching through sink. Law outputs are
// clamped unless WithClamp(false) is given.
func NewClassifier(th model.Thresholds, sink Dispatcher, opts ...Option) *Classifier {
	c := &Classifier{
		th:    th,
		sink:  sink,
		rules: DefaultRules(),
		clamp: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.model = speed.NewModel(th, c.clamp)
	return c
}

// Classify returns the first matching rule's decision without side effects.
func (c *Classifier) Classify(d model.DirectionalDistances) (Decision, bool) {
	for _, r := range c.rules {
		if r.When(d, c.th) {
			dir, dist, law := r.Decide(d)
			return Decision{Rule: r.Name, Direction: dir, Distance: dist, Law: law}, true
		}
	}
	return Decision{}, false
}

// Handle dispatches a single steering command if d holds a far obstacle.
func (c *Classifier) Handle(ctx context.Context, d model.DirectionalDistances) (Outcome, error) {
	dec, ok := c.Classify(d)
	if !ok {
		return Outcome{}, nil
	}
	cmd, clamped := c.model.Command(dec.Law, dec.Direction, dec.Distance)
	out := Outcome{Encounter: true, Decision: dec, Command: cmd, Clamped: clamped}
	if err := c.sink.Dispatch(ctx, cmd); err != nil {
		return out, fmt.Errorf("steer %s: %w", dec.Rule, err)
	}
	return out, nil
}
