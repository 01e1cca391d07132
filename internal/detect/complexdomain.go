// SPDX-License-Identifier: MIT
package detect

import (
	"math"

	"emberlight/internal/dsp"
)

const cdMedianScale = 2.0

// ComplexDomainDetector predicts each bin's phase by circular
// extrapolation from the last two frames and weighs the prediction
// error by magnitude. Onsets disturb phase continuity even when the
// magnitude envelope barely moves, which catches soft or pitched
// attacks the energy-based detectors miss.
type ComplexDomainDetector struct {
	base

	prevPhase  [dsp.SpectralBins]float64
	prev2Phase [dsp.SpectralBins]float64
	frames     int
}

// NewComplexDomainDetector returns a complex-domain detector with the
// given initial config.
func NewComplexDomainDetector(cfg Config) *ComplexDomainDetector {
	d := &ComplexDomainDetector{}
	d.Configure(cfg)
	return d
}

func (d *ComplexDomainDetector) Type() Type                 { return ComplexDomain }
func (d *ComplexDomainDetector) RequiresSpectralData() bool { return true }

func (d *ComplexDomainDetector) Detect(frame *Frame, dt float64) Result {
	if !frame.SpectralValid {
		return Result{}
	}
	mag, phase := frame.Magnitude, frame.Phase
	n := min(len(mag), len(phase), dsp.SpectralBins)

	var deviation, magSum float64
	ready := d.frames >= 2 // two prior frames needed for extrapolation
	if ready {
		for i := 1; i < n; i++ {
			predicted := wrapPhase(2.0*d.prevPhase[i] - d.prev2Phase[i])
			err := math.Abs(wrapPhase(phase[i] - predicted))
			deviation += mag[i] * err
			magSum += mag[i]
		}
	}

	// Phase history advances on every call, detection or not.
	copy(d.prev2Phase[:n], d.prevPhase[:n])
	copy(d.prevPhase[:n], phase[:n])
	d.frames++

	if !ready {
		return Result{}
	}
	value := safeRatio(deviation, magSum*math.Pi, 0)
	d.push(value)
	thr := d.adaptiveThreshold(cdMedianScale, d.cfg.Threshold)

	if value <= thr {
		return Result{}
	}
	strength := clamp01(safeRatio(value, thr*3.0, 0))
	confidence := clamp01(safeRatio(value-thr, thr*1.5, 0))
	return Result{Strength: strength, Confidence: confidence, Detected: true}
}

func (d *ComplexDomainDetector) Reset() {
	d.resetBase()
	for i := range d.prevPhase {
		d.prevPhase[i] = 0
		d.prev2Phase[i] = 0
	}
	d.frames = 0
}

// wrapPhase maps an angle onto (-pi, pi].
func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2.0 * math.Pi
	}
	for p <= -math.Pi {
		p += 2.0 * math.Pi
	}
	return p
}
