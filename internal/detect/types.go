// SPDX-License-Identifier: MIT
/*
Package detect implements the onset detector ensemble: seven
independent detectors behind one interface, a fusion stage that turns
their per-frame verdicts into a single decision with agreement-based
confidence shaping and a shared cooldown, and the Ensemble orchestrator
that owns the analyzers and drives the per-tick update order.

The package is single-threaded and poll-driven; every call completes in
a bounded number of arithmetic operations and nothing here allocates
after construction.
*/
package detect

import (
	"time"

	"emberlight/internal/dsp"
)

// Type identifies one detector algorithm.
type Type int

const (
	// Amplitude compares the time-domain level against a short
	// lookback baseline and requires a minimum frame-over-frame rise,
	// rejecting slow swells.
	Amplitude Type = iota
	// SpectralFlux is SuperFlux-style half-wave rectified flux against
	// a 3-bin max-filtered previous frame, limited to bins below 4 kHz.
	SpectralFlux
	// HighFrequency is a quadratic-bin-weighted magnitude sum with an
	// attack-ratio gate.
	HighFrequency
	// BassFlux is half-wave flux restricted to ~62-375 Hz.
	BassFlux
	// ComplexDomain weighs wrap-safe phase prediction error by
	// magnitude, catching soft or pitched onsets.
	ComplexDomain
	// SpectralNovelty is the cosine distance between consecutive mel
	// band vectors: shape change independent of loudness.
	SpectralNovelty
	// BandFlux is band-weighted log-compressed flux with an additive
	// threshold and a deferred decay-confirmation window.
	BandFlux

	numTypes
)

// NumDetectors is the size of the detector ensemble.
const NumDetectors = int(numTypes)

// None is the dominant-detector sentinel when no detector contributed.
const None Type = -1

func (t Type) String() string {
	switch t {
	case Amplitude:
		return "amplitude"
	case SpectralFlux:
		return "spectral_flux"
	case HighFrequency:
		return "high_frequency"
	case BassFlux:
		return "bass_flux"
	case ComplexDomain:
		return "complex_domain"
	case SpectralNovelty:
		return "spectral_novelty"
	case BandFlux:
		return "band_flux"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// Valid reports whether t names a real detector.
func (t Type) Valid() bool { return t >= 0 && t < numTypes }

// Config holds one detector's runtime tuning. Mutable at runtime, not
// persisted by this package.
type Config struct {
	Weight    float64 // fusion weight, clamped to [0,1]
	Threshold float64 // detector-specific threshold floor
	Enabled   bool
}

// Result is one detector's verdict for one frame. The zero value is
// the "none" sentinel.
type Result struct {
	Strength   float64 // [0,1]
	Confidence float64 // [0,1]
	Detected   bool
}

// Frame is the read-only snapshot handed to every detector each tick.
// It borrows its slices from the live analyzer frames; its lifetime is
// exactly one update tick and no detector may retain a reference.
type Frame struct {
	Level     float64 // smoothed time-domain level, [0,1]
	RawLevel  float64 // instantaneous RMS of the current batch, [0,1]
	Timestamp time.Duration

	// Spectral engine views, valid only when SpectralValid is set
	// (a new spectral frame was processed this tick).
	Magnitude     []float64
	Phase         []float64
	PrevMagnitude []float64
	PrevPhase     []float64
	Mel           []float64
	PrevMel       []float64
	TotalEnergy   float64
	Centroid      float64
	HasPrevFrame  bool
	SpectralValid bool

	// Bass analyzer views, valid only when BassValid is set.
	BassBins     []float64
	PrevBassBins []float64
	HasPrevBass  bool
	BassValid    bool
}

// Detector is the shared contract every onset algorithm implements.
// Detectors never apply their own cooldown; hysteresis is centralized
// in the fusion stage. Implementations must leave their internal
// previous-frame reference buffers updated on every call, detection or
// not, so flux comparisons stay frame-accurate.
type Detector interface {
	Configure(cfg Config)
	Detect(frame *Frame, dt float64) Result
	Reset()
	Type() Type
	RequiresSpectralData() bool
}

// bassBinRange returns the bass analyzer bin indices covering
// lowHz..highHz inclusive.
func bassBinRange(lowHz, highHz float64) (int, int) {
	lo := 0
	for lo < dsp.BassBins && dsp.BassBinFrequency(lo) < lowHz {
		lo++
	}
	hi := dsp.BassBins - 1
	for hi >= 0 && dsp.BassBinFrequency(hi) > highHz {
		hi--
	}
	return lo, hi
}
