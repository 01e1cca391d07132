// SPDX-License-Identifier: MIT
package detect

import (
	"math"

	"emberlight/internal/dsp"
)

const (
	bassFluxLowHz      = 62.0
	bassFluxHighHz     = 375.0
	bassFluxScale      = 1.8
	bassFluxFullEnergy = 0.35 // flux mapping to strength 1.0
)

// BassFluxDetector is half-wave rectified flux restricted to the
// ~62-375 Hz kick-drum band. It prefers the high-resolution bass
// analyzer bins and falls back to the low linear bins of the shared
// spectrum when no bass frame is available this tick.
type BassFluxDetector struct {
	base
}

// NewBassFluxDetector returns a bass-band flux detector with the given
// initial config.
func NewBassFluxDetector(cfg Config) *BassFluxDetector {
	d := &BassFluxDetector{}
	d.Configure(cfg)
	return d
}

func (d *BassFluxDetector) Type() Type                 { return BassFlux }
func (d *BassFluxDetector) RequiresSpectralData() bool { return true }

func (d *BassFluxDetector) Detect(frame *Frame, dt float64) Result {
	var flux float64
	var ok bool
	switch {
	case frame.BassValid && frame.HasPrevBass:
		flux, ok = bassBinFlux(frame.BassBins, frame.PrevBassBins)
	case frame.SpectralValid && frame.HasPrevFrame:
		flux, ok = lowSpectrumFlux(frame.Magnitude, frame.PrevMagnitude)
	}
	if !ok {
		return Result{}
	}

	d.push(flux)
	thr := d.adaptiveThreshold(bassFluxScale, d.cfg.Threshold)

	if flux <= thr {
		return Result{}
	}
	strength := clamp01(flux / bassFluxFullEnergy)
	confidence := clamp01(safeRatio(flux-thr, thr, 0))
	return Result{Strength: strength, Confidence: confidence, Detected: true}
}

func (d *BassFluxDetector) Reset() { d.resetBase() }

// bassBinFlux sums positive change across the bass analyzer bins inside
// the detector's band.
func bassBinFlux(cur, prev []float64) (float64, bool) {
	lo, hi := bassBinRange(bassFluxLowHz, bassFluxHighHz)
	if lo > hi || hi >= len(cur) || hi >= len(prev) {
		return 0, false
	}
	var flux float64
	for i := lo; i <= hi; i++ {
		if diff := cur[i] - prev[i]; diff > 0 {
			flux += diff
		}
	}
	return flux / float64(hi-lo+1), true
}

// lowSpectrumFlux is the fallback path over the shared spectrum's low
// linear bins.
func lowSpectrumFlux(cur, prev []float64) (float64, bool) {
	lo := int(math.Round(bassFluxLowHz / dsp.BinHz))
	hi := int(math.Floor(bassFluxHighHz / dsp.BinHz))
	if lo < 1 {
		lo = 1
	}
	n := min(len(cur), len(prev))
	if hi >= n {
		hi = n - 1
	}
	if lo > hi {
		return 0, false
	}
	var flux float64
	for i := lo; i <= hi; i++ {
		if diff := cur[i] - prev[i]; diff > 0 {
			flux += diff
		}
	}
	return flux / float64(hi-lo+1), true
}
