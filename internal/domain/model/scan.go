// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// ScanBins is the number of angular bins in a full scan, one per degree.
const ScanBins = 360

// RawScan is one revolution of range readings indexed by degree.
// A reading of 0 means the scanner got no valid return for that bin.
type RawScan struct {
	Ranges []float64 // meters, index = degrees counter-clockwise from heading
	TS     time.Time // acquisition time, zero when the source does not stamp scans
}

// NewRawScan checks that ranges holds exactly one reading per bin and wraps
// it in a RawScan stamped with ts. Reading values are not judged here;
// invalid returns are the aggregator's business.
func NewRawScan(ranges []float64, ts time.Time) (RawScan, error) {
	if len(ranges) != ScanBins {
		return RawScan{}, fmt.Errorf("%w: %d readings, want %d", ErrMalformedScan, len(ranges), ScanBins)
	}
	return RawScan{Ranges: ranges, TS: ts}, nil
}

// Sector names a fixed angular sub-range of a scan.
type Sector string

// Sector names in the order they are reported.
const (
	SectorLeft       Sector = "left"
	SectorRight      Sector = "right"
	SectorFront      Sector = "front"
	SectorFrontLeft  Sector = "front_left"
	SectorFrontRight Sector = "front_right"
)

// Sectors lists every sector key of DirectionalDistances.
var Sectors = []Sector{SectorLeft, SectorRight, SectorFront, SectorFrontLeft, SectorFrontRight} //nolint:gochecknoglobals // fixed sector set

// DirectionalDistances holds one aggregated distance estimate per sector, in meters.
// Values are produced fresh each cycle and never mutated afterwards.
type DirectionalDistances struct {
	Left       float64 `json:"left"`
	Right      float64 `json:"right"`
	Front      float64 `json:"front"`
	FrontLeft  float64 `json:"front_left"`
	FrontRight float64 `json:"front_right"`
}

// Get returns the distance stored under the given sector.
func (d DirectionalDistances) Get(s Sector) float64 {
	switch s {
	case SectorLeft:
		return d.Left
	case SectorRight:
		return d.Right
	case SectorFront:
		return d.Front
	case SectorFrontLeft:
		return d.FrontLeft
	case SectorFrontRight:
		return d.FrontRight
	default:
		return 0
	}
}

// Map returns the distances keyed by sector name.
func (d DirectionalDistances) Map() map[Sector]float64 {
	out := make(map[Sector]float64, len(Sectors))
	for _, s := range Sectors {
		out[s] = d.Get(s)
	}
	return out
}
