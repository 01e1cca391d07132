// SPDX-License-Identifier: MIT
package detect

import "emberlight/internal/dsp"

const (
	fluxMaxHz       = 4000.0
	fluxMedianScale = 1.8
)

// SpectralFluxDetector implements SuperFlux-style onset detection:
// half-wave rectified magnitude difference against a 3-bin max-filtered
// previous frame. The max filter suppresses vibrato, which otherwise
// smears energy across neighboring bins and fakes flux. Only bins up to
// 4 kHz participate.
type SpectralFluxDetector struct {
	base
	maxFiltered [dsp.SpectralBins]float64
}

// NewSpectralFluxDetector returns a SuperFlux-style detector with the
// given initial config.
func NewSpectralFluxDetector(cfg Config) *SpectralFluxDetector {
	d := &SpectralFluxDetector{}
	d.Configure(cfg)
	return d
}

func (d *SpectralFluxDetector) Type() Type                 { return SpectralFlux }
func (d *SpectralFluxDetector) RequiresSpectralData() bool { return true }

func (d *SpectralFluxDetector) Detect(frame *Frame, dt float64) Result {
	if !frame.SpectralValid || !frame.HasPrevFrame {
		return Result{}
	}
	mag, prev := frame.Magnitude, frame.PrevMagnitude
	n := min(len(mag), len(prev))
	maxBin := int(fluxMaxHz / dsp.BinHz)
	if maxBin > n-1 {
		maxBin = n - 1
	}

	// 3-bin max filter over the previous frame.
	for i := 0; i <= maxBin; i++ {
		m := prev[i]
		if i > 0 && prev[i-1] > m {
			m = prev[i-1]
		}
		if i < n-1 && prev[i+1] > m {
			m = prev[i+1]
		}
		d.maxFiltered[i] = m
	}

	var flux float64
	for i := 1; i <= maxBin; i++ { // DC skipped
		if diff := mag[i] - d.maxFiltered[i]; diff > 0 {
			flux += diff
		}
	}
	flux /= float64(maxBin)

	d.push(flux)
	thr := d.adaptiveThreshold(fluxMedianScale, d.cfg.Threshold)

	if flux <= thr {
		return Result{}
	}
	strength := clamp01(safeRatio(flux, thr*3.0, 0))
	confidence := clamp01(safeRatio(flux-thr, thr*2.0, 0))
	return Result{Strength: strength, Confidence: confidence, Detected: true}
}

func (d *SpectralFluxDetector) Reset() {
	d.resetBase()
	for i := range d.maxFiltered {
		d.maxFiltered[i] = 0
	}
}
