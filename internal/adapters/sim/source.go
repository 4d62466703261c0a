// Package sim provides in-process scan sources and command sinks for bench runs
// and tests.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/slalom/internal/domain/model"
)

// Fill returns a full scan with every bin set to v.
func Fill(v float64) model.RawScan {
	r := make([]float64, model.ScanBins)
	for i := range r {
		r[i] = v
	}
	return model.RawScan{Ranges: r}
}

// OpenField is a scan with no valid returns at all.
func OpenField() model.RawScan {
	return Fill(0)
}

// Paint returns a copy of scan with bins [from, to) set to v. Ranges wrap at 360,
// so Paint(s, 350, 370, v) covers both sides of the heading.
func Paint(scan model.RawScan, from, to int, v float64) model.RawScan {
	out := model.RawScan{Ranges: append([]float64(nil), scan.Ranges...), TS: scan.TS}
	n := len(out.Ranges)
	if n == 0 {
		return out
	}
	for i := from; i < to; i++ {
		out.Ranges[((i%n)+n)%n] = v
	}
	return out
}

// SourceOption applies a configuration option to the Source.
type SourceOption func(*Source)

// WithScans sets the script of scans replayed in order.
func WithScans(scans ...model.RawScan) SourceOption {
	return func(s *Source) {
		s.script = append(s.script, scans...)
	}
}

// WithLoop restarts the script after the last scan instead of failing.
func WithLoop(loop bool) SourceOption {
	return func(s *Source) {
		s.loop = loop
	}
}

// WithPeriod delays every Fetch to mimic the scanner's rotation period.
func WithPeriod(d time.Duration) SourceOption {
	return func(s *Source) {
		if d > 0 {
			s.period = d
		}
	}
}

// Source replays a fixed script of scans.
type Source struct {
	mu      sync.Mutex
	script  []model.RawScan
	next    int
	fetched int
	loop    bool
	period  time.Duration
}

// NewSource creates a scripted source.
func NewSource(opts ...SourceOption) *Source {
	s := &Source{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the next scripted scan. Each call hands out a fresh copy.
func (s *Source) Fetch(ctx context.Context) (model.RawScan, error) {
	if s.period > 0 {
		select {
		case <-ctx.Done():
			return model.RawScan{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(s.period):
		}
	}
	if err := ctx.Err(); err != nil {
		return model.RawScan{}, fmt.Errorf("context cancelled: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.script) {
		if !s.loop || len(s.script) == 0 {
			return model.RawScan{}, fmt.Errorf("after %d scans: %w", s.fetched, ErrScriptExhausted)
		}
		s.next = 0
	}
	scan := s.script[s.next]
	s.next++
	s.fetched++

	out := model.RawScan{Ranges: append([]float64(nil), scan.Ranges...), TS: scan.TS}
	if out.TS.IsZero() {
		out.TS = time.Now()
	}
	return out, nil
}

// Fetched returns how many scans have been handed out.
func (s *Source) Fetched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched
}
