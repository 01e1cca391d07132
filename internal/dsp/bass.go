// SPDX-License-Identifier: MIT
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// Bass analyzer constants. The window is twice the shared engine's for
// double the frequency resolution in the kick-drum band, at the cost of
// a hop of extra latency (50% overlap).
const (
	BassWindowSize = 1024 // 64 ms
	BassHopSize    = 512  // 50% overlap
	BassBins       = 12

	// Bin centers sit at multiples of the bass bin spacing:
	// 31.25, 62.5, ..., 375 Hz.
	BassBinSpacingHz = SampleRate / BassWindowSize * 2 // 31.25

	bassFramePeriod = float64(BassHopSize) / SampleRate

	whiteningDecay = 0.9995
	whiteningFloor = 0.02
)

// compressor is a soft-knee dynamic range compressor operating on a
// level in dBFS. Attack and release time constants are converted to
// per-frame smoothing coefficients, recomputed only when the constants
// change.
type compressor struct {
	thresholdDB float64
	ratio       float64
	kneeDB      float64

	attackMs  float64
	releaseMs float64

	attackCoeff  float64
	releaseCoeff float64

	gainDB float64 // smoothed gain, <= 0
}

func newCompressor() compressor {
	c := compressor{
		thresholdDB: -24.0,
		ratio:       4.0,
		kneeDB:      6.0,
	}
	c.setTimeConstants(8.0, 180.0)
	return c
}

// setTimeConstants updates attack/release and recomputes the smoothing
// coefficients. A no-op when the constants are unchanged.
func (c *compressor) setTimeConstants(attackMs, releaseMs float64) {
	if attackMs == c.attackMs && releaseMs == c.releaseMs {
		return
	}
	if attackMs < 0.1 {
		attackMs = 0.1
	}
	if releaseMs < 1.0 {
		releaseMs = 1.0
	}
	c.attackMs = attackMs
	c.releaseMs = releaseMs
	c.attackCoeff = math.Exp(-bassFramePeriod / (attackMs / 1000.0))
	c.releaseCoeff = math.Exp(-bassFramePeriod / (releaseMs / 1000.0))
}

// gainFor computes the smoothed linear gain for a frame at the given
// level in dBFS, advancing the compressor's internal gain state.
func (c *compressor) gainFor(levelDB float64) float64 {
	over := levelDB - c.thresholdDB
	var outDB float64
	switch {
	case 2.0*over < -c.kneeDB:
		outDB = levelDB
	case 2.0*math.Abs(over) <= c.kneeDB:
		d := over + c.kneeDB/2.0
		outDB = levelDB + (1.0/c.ratio-1.0)*d*d/(2.0*c.kneeDB)
	default:
		outDB = c.thresholdDB + over/c.ratio
	}
	target := outDB - levelDB // <= 0

	coeff := c.releaseCoeff
	if target < c.gainDB { // more reduction needed: attack
		coeff = c.attackCoeff
	}
	c.gainDB = coeff*c.gainDB + (1.0-coeff)*target
	return math.Pow(10.0, finiteOr(c.gainDB, 0)/20.0)
}

func (c *compressor) reset() { c.gainDB = 0 }

// BassAnalyzer mirrors the spectral engine's contract for 12 narrow
// low-frequency bins (~31-375 Hz). Per-bin magnitude comes from a
// recursive two-pole resonator per target frequency, avoiding a full
// transform. After extraction the bins pass through a soft-knee
// compressor keyed on their combined RMS, then per-bin whitening by a
// decayed running maximum, so output bins are relative, not absolute,
// energies.
type BassAnalyzer struct {
	ring       *SampleRing
	resonators [BassBins]Goertzel

	windowCoeffs []float64
	input        []float64

	magnitude     []float64
	prevMagnitude []float64
	whitenMax     []float64

	comp       compressor
	framesDone int
}

// NewBassAnalyzer creates an analyzer tuned to the fixed 16 kHz feed.
func NewBassAnalyzer() *BassAnalyzer {
	coeffs := make([]float64, BassWindowSize)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	window.Hamming(coeffs)

	a := &BassAnalyzer{
		ring:          NewSampleRing(BassWindowSize, BassHopSize),
		windowCoeffs:  coeffs,
		input:         make([]float64, BassWindowSize),
		magnitude:     make([]float64, BassBins),
		prevMagnitude: make([]float64, BassBins),
		whitenMax:     make([]float64, BassBins),
		comp:          newCompressor(),
	}
	for i := range a.resonators {
		a.resonators[i] = NewGoertzel(BassBinFrequency(i), SampleRate)
	}
	for i := range a.whitenMax {
		a.whitenMax[i] = whiteningFloor
	}
	return a
}

// BassBinFrequency returns the center frequency in Hz of a bass bin,
// or 0 for out-of-range indices.
func BassBinFrequency(bin int) float64 {
	if bin < 0 || bin >= BassBins {
		return 0
	}
	return float64(bin+1) * BassBinSpacingHz
}

// AddSamples feeds raw PCM and reports whether a frame is ready.
func (a *BassAnalyzer) AddSamples(samples []int16) bool {
	return a.ring.Write(samples)
}

// FrameReady reports whether Process would produce a new frame.
func (a *BassAnalyzer) FrameReady() bool { return a.ring.State() == Ready }

// ResetFrameReady marks the current frame as consumed.
func (a *BassAnalyzer) ResetFrameReady() { a.ring.Consume() }

// HasPreviousFrame reports whether the previous-frame accessor holds
// real data.
func (a *BassAnalyzer) HasPreviousFrame() bool { return a.framesDone >= 2 }

// Process computes the next bass frame: resonator magnitudes,
// compression, whitening. A no-op unless a frame is ready.
func (a *BassAnalyzer) Process() {
	if a.ring.State() != Ready {
		return
	}

	copy(a.prevMagnitude, a.magnitude)

	a.ring.CopyWindow(a.input)
	for i := range a.input {
		a.input[i] *= sampleNorm * a.windowCoeffs[i]
	}

	// Normalize resonator output so a full-scale sine at a bin center
	// lands near 1.0 (window coherent gain for Hamming is ~0.54).
	const magNorm = 2.0 / (float64(BassWindowSize) * 0.54)

	var sumSquares float64
	for i := range a.resonators {
		a.resonators[i].Reset()
		a.resonators[i].ProcessBlock(a.input)
		mag := finiteOr(a.resonators[i].Magnitude()*magNorm, 0)
		a.magnitude[i] = mag
		sumSquares += mag * mag
	}

	// Soft-knee compression keyed on the bins' combined RMS in dB.
	rms := math.Sqrt(sumSquares / BassBins)
	levelDB := -120.0
	if rms > 1e-6 {
		levelDB = 20.0 * math.Log10(rms)
	}
	gain := a.comp.gainFor(levelDB)
	for i := range a.magnitude {
		a.magnitude[i] *= gain
	}

	// Per-bin whitening: divide by a decayed running maximum so loud
	// rooms don't permanently desensitize quiet passages. The floor
	// keeps the division safe in silence.
	for i := range a.magnitude {
		decayed := a.whitenMax[i] * whiteningDecay
		if decayed < whiteningFloor {
			decayed = whiteningFloor
		}
		if a.magnitude[i] > decayed {
			decayed = a.magnitude[i]
		}
		a.whitenMax[i] = decayed
		a.magnitude[i] = clamp01(finiteOr(a.magnitude[i]/decayed, 0))
	}

	a.framesDone++
}

// Magnitude returns the live frame's whitened bin values (borrowed,
// valid until the next Process).
func (a *BassAnalyzer) Magnitude() []float64 { return a.magnitude }

// PrevMagnitude returns the prior frame's bin values (borrowed).
func (a *BassAnalyzer) PrevMagnitude() []float64 { return a.prevMagnitude }

// SetCompressorTimeConstants updates the compressor attack/release in
// milliseconds.
func (a *BassAnalyzer) SetCompressorTimeConstants(attackMs, releaseMs float64) {
	a.comp.setTimeConstants(attackMs, releaseMs)
}

// Reset clears samples, frames, whitening and compressor state.
func (a *BassAnalyzer) Reset() {
	a.ring.Reset()
	zero(a.magnitude)
	zero(a.prevMagnitude)
	for i := range a.whitenMax {
		a.whitenMax[i] = whiteningFloor
	}
	a.comp.reset()
	a.framesDone = 0
}
