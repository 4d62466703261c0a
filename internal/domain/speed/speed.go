// Package speed holds the empirically fitted speed laws that map an obstacle
// distance to a linear and angular velocity.
//
// Closer obstacles yield slower, sharper turns. The coefficients come from
// regression fits and must not be rounded.
package speed

import (
	"math"

	"github.com/okian/slalom/internal/domain/model"
)

// minDistance keeps the negative-exponent terms finite.
const minDistance = 1e-3

// Law is a pair of power curves: angular = AngularCoef * d^AngularExp and
// linear = LinearCoef * d^LinearExp, both scaled by the platform maximum.
type Law struct {
	Name        string
	AngularCoef float64
	AngularExp  float64
	LinearCoef  float64
	LinearExp   float64
}

// WideLaw applies to the wide left, right and front sectors.
var WideLaw = Law{ //nolint:gochecknoglobals // fitted constants
	Name:        "wide",
	AngularCoef: 0.1876,
	AngularExp:  -0.7268,
	LinearCoef:  5.834,
	LinearExp:   1.465,
}

// BlindLaw applies to the narrow front-left and front-right sectors.
var BlindLaw = Law{ //nolint:gochecknoglobals // fitted constants
	Name:        "blind",
	AngularCoef: 0.223,
	AngularExp:  -0.6309,
	LinearCoef:  9.169,
	LinearExp:   2.418,
}

// Eval returns the unclamped (linear, angular) speeds for distance d.
// Non-positive distances are evaluated at a millimetre.
func (l Law) Eval(d float64, th model.Thresholds) (linear, angular float64) {
	if d < minDistance || math.IsNaN(d) {
		d = minDistance
	}
	angular = l.AngularCoef * math.Pow(d, l.AngularExp) * th.MaxAngularSpeed
	linear = l.LinearCoef * math.Pow(d, l.LinearExp) * th.MaxLinearVelocity
	return linear, angular
}

// Wide evaluates WideLaw.
func Wide(d float64, th model.Thresholds) (linear, angular float64) {
	return WideLaw.Eval(d, th)
}

// Blind evaluates BlindLaw.
func Blind(d float64, th model.Thresholds) (linear, angular float64) {
	return BlindLaw.Eval(d, th)
}

// Clamp bounds linear to [0, MaxLinearVelocity] and angular to [0, MaxAngularSpeed].
// It reports whether either value had to be cut.
func Clamp(linear, angular float64, th model.Thresholds) (float64, float64, bool) {
	l := clamp(linear, 0, th.MaxLinearVelocity)
	a := clamp(angular, 0, th.MaxAngularSpeed)
	return l, a, l != linear || a != angular
}

// Model evaluates laws into ready-to-dispatch commands.
type Model struct {
	th    model.Thresholds
	clamp bool
}

// NewModel creates a Model. With clamp set, every command is bounded by the
// platform maxima.
func NewModel(th model.Thresholds, clamp bool) Model {
	return Model{th: th, clamp: clamp}
}

// Command turns the law's output at distance d into a command towards dir.
// The second return value reports whether clamping changed the speeds.
func (m Model) Command(l Law, dir model.Direction, d float64) (model.SpeedCommand, bool) {
	linear, angular := l.Eval(d, m.th)
	clamped := false
	if m.clamp {
		linear, angular, clamped = Clamp(linear, angular, m.th)
	}
	return model.NewSpeedCommand(dir, linear, angular), clamped
}

// clamp keeps value inside [lo, hi].
func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
