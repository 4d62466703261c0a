package service

import (
	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/internal/domain/proximity"
	"github.com/okian/slalom/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithThresholds sets the platform limits shared by every component.
func WithThresholds(th model.Thresholds) Option {
	return func(s *Service) {
		s.th = th
	}
}

// WithAggregator replaces the scan aggregator.
func WithAggregator(agg proximity.Aggregator) Option {
	return func(s *Service) {
		if agg != nil {
			s.agg = agg
		}
	}
}

// WithMaxIterations caps one close-obstacle recovery. Zero removes the cap.
func WithMaxIterations(n int) Option {
	return func(s *Service) {
		s.maxIterations = n
	}
}

// WithTurnRatio sets the recovery turn rate as a fraction of the maximum angular speed.
func WithTurnRatio(r float64) Option {
	return func(s *Service) {
		if r > 0 && r <= 1 {
			s.turnRatio = r
		}
	}
}

// WithClamp bounds far-field commands by the platform maxima.
func WithClamp(clamp bool) Option {
	return func(s *Service) {
		s.clamp = clamp
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithTelemetry tees every dispatched command into t.
func WithTelemetry(t Telemetry) Option {
	return func(s *Service) {
		s.telemetry = t
	}
}
