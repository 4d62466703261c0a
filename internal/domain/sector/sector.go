// Package sector reduces a raw angular scan into per-sector distance estimates.
package sector

import (
	"math"
	"sort"

	"github.com/okian/slalom/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// DefaultNoReturnRange is the distance substituted for invalid readings
// unless WithNoReturnRange overrides it.
const DefaultNoReturnRange = model.DefaultNoReturnRange

// Span is a half-open range of scan bins [Start, End).
type Span struct {
	Start int
	End   int
}

// Layout maps each sector to the bins it covers. A sector may span the 0° seam
// by listing more than one Span.
type Layout map[model.Sector][]Span

// DefaultLayout returns the fixed sector boundaries for a 360-bin scanner.
func DefaultLayout() Layout {
	return Layout{
		model.SectorLeft:       {{Start: 20, End: 60}},
		model.SectorRight:      {{Start: 305, End: 345}},
		model.SectorFront:      {{Start: 345, End: 360}, {Start: 0, End: 15}},
		model.SectorFrontLeft:  {{Start: 15, End: 23}},
		model.SectorFrontRight: {{Start: 337, End: 345}},
	}
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithNoReturnRange sets the distance substituted for invalid readings.
func WithNoReturnRange(r float64) Option {
	return func(a *Aggregator) {
		if r > 0 {
			a.noReturn = r
		}
	}
}

// WithLayout replaces the sector boundaries.
func WithLayout(l Layout) Option {
	return func(a *Aggregator) {
		if len(l) > 0 {
			a.layout = l
		}
	}
}

// Aggregator turns a RawScan into DirectionalDistances. It holds no per-scan state
// and is safe for concurrent use.
type Aggregator struct {
	layout   Layout
	noReturn float64
}

// NewAggregator creates an aggregator with the default layout.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		layout:   DefaultLayout(),
		noReturn: DefaultNoReturnRange,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate produces one estimate per sector.
func (a *Aggregator) Aggregate(scan model.RawScan) model.DirectionalDistances {
	return model.DirectionalDistances{
		Left:       a.Reduce(a.Extract(scan, model.SectorLeft)),
		Right:      a.Reduce(a.Extract(scan, model.SectorRight)),
		Front:      a.Reduce(a.Extract(scan, model.SectorFront)),
		FrontLeft:  a.Reduce(a.Extract(scan, model.SectorFrontLeft)),
		FrontRight: a.Reduce(a.Extract(scan, model.SectorFrontRight)),
	}
}

// Extract copies the readings covered by a sector. Bins past the end of a short
// scan are skipped.
func (a *Aggregator) Extract(scan model.RawScan, s model.Sector) []float64 {
	spans := a.layout[s]
	out := make([]float64, 0, spanWidth(spans))
	for _, sp := range spans {
		for i := sp.Start; i < sp.End && i < len(scan.Ranges); i++ {
			if i < 0 {
				continue
			}
			out = append(out, scan.Ranges[i])
		}
	}
	return out
}

// Reduce sanitizes the readings and returns the mean of the smallest half.
// Fewer than two readings leave nothing to average, so the sector is reported as
// open at the no-return range.
func (a *Aggregator) Reduce(readings []float64) float64 {
	clean := a.Sanitize(readings)
	half := len(clean) / 2
	if half == 0 {
		return a.noReturn
	}
	sort.Float64s(clean)
	return stat.Mean(clean[:half], nil)
}

// Sanitize returns a copy of readings with every invalid value (zero, negative,
// NaN or infinite) replaced by the no-return range.
func (a *Aggregator) Sanitize(readings []float64) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			r = a.noReturn
		}
		out[i] = r
	}
	return out
}

// NoReturnRange reports the sentinel distance used for invalid readings.
func (a *Aggregator) NoReturnRange() float64 {
	return a.noReturn
}

func spanWidth(spans []Span) int {
	n := 0
	for _, sp := range spans {
		if sp.End > sp.Start {
			n += sp.End - sp.Start
		}
	}
	return n
}
