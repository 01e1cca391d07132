// SPDX-License-Identifier: MIT
package detect

import (
	"math"

	"emberlight/internal/dsp"
)

const (
	bandFluxGamma = 30.0 // log compression strength

	bandBassHighHz = 250.0
	bandMidHighHz  = 2000.0
	bandTopHz      = 8000.0

	bandBassWeight = 1.5
	bandMidWeight  = 1.2
	bandHighWeight = 0.6

	bandHihatFrac    = 0.25 // low flux below this fraction of high flux is hi-hat only
	bandSharpnessMin = 0.3

	bandConfirmFrames     = 3
	bandDecayConfirmRatio = 0.6
)

// confirmState is the deferred-decision state of the band flux
// detector.
type confirmState int

const (
	confirmIdle confirmState = iota
	confirmPending
)

// BandFluxDetector computes band-weighted log-compressed spectral flux:
// magnitudes are log-compressed, referenced against a 3-bin max-filtered
// previous frame, and the half-wave flux is summed with bass and mid
// bands weighted up and highs weighted down. The threshold is additive
// on top of the local median rather than multiplicative, so the
// detector still fires at low absolute signal levels.
//
// Gates: a hi-hat-only suppression gate rejects frames whose flux lives
// almost entirely above 2 kHz, and a sharpness gate (optional, default
// on) rejects flux that was already elevated on the previous frame.
//
// When the confirmation window is enabled, a candidate onset is held
// for bandConfirmFrames spectral frames and emitted only if the flux
// has decayed, distinguishing percussive hits from sustained pads.
// Invariant: any onset arriving while a candidate is pending is
// dropped, and emission is delayed by the window length. Calibrated
// weights depend on this behavior; do not "fix" it.
type BandFluxDetector struct {
	base

	logCur      [dsp.SpectralBins]float64
	logPrev     [dsp.SpectralBins]float64
	maxFiltered [dsp.SpectralBins]float64

	prevFlux    float64
	hasPrevFlux bool

	// Optional gates.
	SharpnessGate bool
	DominanceGate bool
	CrestGate     bool
	ConfirmWindow bool

	state         confirmState
	countdown     int
	candidate     Result
	candidateFlux float64
}

// NewBandFluxDetector returns a band-weighted log flux detector with
// the given initial config. The sharpness gate and confirmation window
// are on by default.
func NewBandFluxDetector(cfg Config) *BandFluxDetector {
	d := &BandFluxDetector{
		SharpnessGate: true,
		ConfirmWindow: true,
	}
	d.Configure(cfg)
	return d
}

func (d *BandFluxDetector) Type() Type                 { return BandFlux }
func (d *BandFluxDetector) RequiresSpectralData() bool { return true }

func (d *BandFluxDetector) Detect(frame *Frame, dt float64) Result {
	if !frame.SpectralValid || !frame.HasPrevFrame {
		return Result{}
	}

	flux, lowFlux, highFlux, peakFlux, bins := d.weightedFlux(frame)
	if bins == 0 {
		return Result{}
	}

	prevFlux := d.prevFlux
	prevFluxValid := d.hasPrevFlux
	d.prevFlux = flux
	d.hasPrevFlux = true
	d.push(flux)

	// Additive threshold: median plus the configured offset.
	median := 0.0
	if d.histLen >= 3 {
		median = d.median()
	}
	thr := median + d.cfg.Threshold
	d.lastThreshold = thr

	candidate := d.evaluate(flux, lowFlux, highFlux, peakFlux, bins, thr, median, prevFlux, prevFluxValid)

	if !d.ConfirmWindow {
		return candidate
	}
	return d.advanceConfirmation(candidate, flux)
}

// evaluate applies the threshold and gates to one frame's flux values
// and returns the raw (unconfirmed) verdict.
func (d *BandFluxDetector) evaluate(flux, lowFlux, highFlux, peakFlux float64, bins int, thr, median, prevFlux float64, prevFluxValid bool) Result {
	if flux <= thr {
		return Result{}
	}

	// Hi-hat-only suppression: real hits carry low/mid energy.
	if highFlux > 1e-9 && lowFlux < bandHihatFrac*highFlux {
		return Result{}
	}

	if d.SharpnessGate {
		if !prevFluxValid {
			return Result{}
		}
		sharpness := safeRatio(flux-prevFlux, flux, 0)
		if sharpness < bandSharpnessMin {
			return Result{}
		}
	}

	if d.DominanceGate && flux < 3.0*maxf(median, 1e-6) {
		return Result{}
	}

	if d.CrestGate {
		// flux is already the per-bin mean.
		if safeRatio(peakFlux, flux, 0) < 4.0 {
			return Result{}
		}
	}

	strength := clamp01(safeRatio(flux, thr*2.5, 0))
	confidence := clamp01(safeRatio(flux-thr, thr+d.cfg.Threshold, 0))
	return Result{Strength: strength, Confidence: confidence, Detected: true}
}

// advanceConfirmation runs the Idle -> Confirming -> Idle machine. A
// new candidate enters Confirming and the verdict is withheld; onsets
// arriving mid-confirmation are dropped. When the countdown expires the
// candidate is emitted only if flux has decayed below the candidate
// level, which sustained pads fail.
func (d *BandFluxDetector) advanceConfirmation(candidate Result, flux float64) Result {
	switch d.state {
	case confirmIdle:
		if !candidate.Detected {
			return Result{}
		}
		d.state = confirmPending
		d.countdown = bandConfirmFrames
		d.candidate = candidate
		d.candidateFlux = flux
		return Result{}
	case confirmPending:
		d.countdown--
		if d.countdown > 0 {
			return Result{}
		}
		d.state = confirmIdle
		if flux <= d.candidateFlux*bandDecayConfirmRatio {
			return d.candidate
		}
		return Result{}
	}
	return Result{}
}

// weightedFlux computes the band-weighted half-wave log flux for the
// frame, returning the total, the low (bass+mid) and high portions, the
// peak single-bin flux, and the participating bin count.
func (d *BandFluxDetector) weightedFlux(frame *Frame) (flux, lowFlux, highFlux, peakFlux float64, bins int) {
	mag, prev := frame.Magnitude, frame.PrevMagnitude
	n := min(len(mag), len(prev), dsp.SpectralBins)
	maxBin := int(bandTopHz / dsp.BinHz)
	if maxBin > n-1 {
		maxBin = n - 1
	}
	if maxBin < 2 {
		return 0, 0, 0, 0, 0
	}

	for i := 0; i <= maxBin; i++ {
		d.logCur[i] = math.Log1p(bandFluxGamma * mag[i])
		d.logPrev[i] = math.Log1p(bandFluxGamma * prev[i])
	}
	for i := 0; i <= maxBin; i++ {
		m := d.logPrev[i]
		if i > 0 && d.logPrev[i-1] > m {
			m = d.logPrev[i-1]
		}
		if i < maxBin && d.logPrev[i+1] > m {
			m = d.logPrev[i+1]
		}
		d.maxFiltered[i] = m
	}

	for i := 1; i <= maxBin; i++ {
		diff := d.logCur[i] - d.maxFiltered[i]
		if diff <= 0 {
			continue
		}
		hz := float64(i) * dsp.BinHz
		var w float64
		switch {
		case hz < bandBassHighHz:
			w = bandBassWeight
		case hz < bandMidHighHz:
			w = bandMidWeight
		default:
			w = bandHighWeight
		}
		weighted := w * diff
		flux += weighted
		if hz < bandMidHighHz {
			lowFlux += weighted
		} else {
			highFlux += weighted
		}
		if weighted > peakFlux {
			peakFlux = weighted
		}
	}
	bins = maxBin
	flux /= float64(bins)
	lowFlux /= float64(bins)
	highFlux /= float64(bins)
	return flux, lowFlux, highFlux, peakFlux, bins
}

func (d *BandFluxDetector) Reset() {
	d.resetBase()
	d.prevFlux = 0
	d.hasPrevFlux = false
	d.state = confirmIdle
	d.countdown = 0
	d.candidate = Result{}
	d.candidateFlux = 0
}
