// SPDX-License-Identifier: MIT
/*
Package dsp implements the frequency-domain analysis shared by every
onset detector:

  - SpectralEngine: windowed FFT frames with magnitude, phase, mel band
    energies, total energy and spectral centroid, retaining the previous
    frame for flux-style comparisons.
  - BassAnalyzer: a narrowband high-resolution sibling covering the
    kick-drum range with Goertzel resonators, soft-knee compression and
    per-bin whitening.

The package is single-threaded and poll-driven: nothing here locks,
blocks, or allocates after construction. Callers must not feed samples
concurrently with reads.
*/
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Analysis constants the engines are tuned against. The sample feed is
// mono 16 kHz signed 16-bit PCM; these are compile-time constants, not
// negotiated.
const (
	SampleRate = 16000.0

	SpectralWindowSize = 512 // 32 ms
	SpectralHopSize    = 256 // ~62.5 frames/s
	SpectralBins       = SpectralWindowSize/2 + 1

	MelBands  = 16
	melLowHz  = 40.0
	melHighHz = 7600.0

	// Log-compression range for mel band energies.
	melFloorDB = -60.0

	// Energies below this are treated as true silence and map to
	// exactly 0 rather than a small positive log artifact.
	silenceEnergy = 1e-10

	sampleNorm = 1.0 / 32768.0
)

// BinHz is the width of one linear spectral bin in Hz.
const BinHz = SampleRate / SpectralWindowSize

// SpectralEngine accumulates raw samples and computes one spectral
// frame per hop: magnitude and phase per linear bin, perceptually
// scaled mel band energies, total energy and centroid. Exactly one
// frame is live at a time; Process overwrites it in place, saving the
// prior frame first so flux detectors can diff against it.
type SpectralEngine struct {
	ring *SampleRing
	fft  *fourier.FFT

	windowCoeffs []float64
	input        []float64
	coeffs       []complex128

	magnitude []float64
	phase     []float64
	mel       []float64

	prevMagnitude []float64
	prevPhase     []float64
	prevMel       []float64

	melBank [][]float64

	totalEnergy     float64
	prevTotalEnergy float64
	centroid        float64
	prevCentroid    float64

	framesDone int
}

// NewSpectralEngine creates an engine tuned to the fixed 16 kHz feed.
func NewSpectralEngine() *SpectralEngine {
	coeffs := make([]float64, SpectralWindowSize)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	window.Hamming(coeffs)

	return &SpectralEngine{
		ring:          NewSampleRing(SpectralWindowSize, SpectralHopSize),
		fft:           fourier.NewFFT(SpectralWindowSize),
		windowCoeffs:  coeffs,
		input:         make([]float64, SpectralWindowSize),
		coeffs:        make([]complex128, SpectralBins),
		magnitude:     make([]float64, SpectralBins),
		phase:         make([]float64, SpectralBins),
		mel:           make([]float64, MelBands),
		prevMagnitude: make([]float64, SpectralBins),
		prevPhase:     make([]float64, SpectralBins),
		prevMel:       make([]float64, MelBands),
		melBank:       newMelFilterBank(MelBands, SpectralWindowSize, SampleRate, melLowHz, melHighHz),
	}
}

// AddSamples feeds raw PCM into the engine's ring buffer and reports
// whether a full frame is ready for Process.
func (e *SpectralEngine) AddSamples(samples []int16) bool {
	return e.ring.Write(samples)
}

// FrameReady reports whether Process would produce a new frame.
func (e *SpectralEngine) FrameReady() bool { return e.ring.State() == Ready }

// ResetFrameReady marks the current frame as consumed.
func (e *SpectralEngine) ResetFrameReady() { e.ring.Consume() }

// HasPreviousFrame reports whether at least two frames have been
// processed, i.e. the previous-frame accessors hold real data.
func (e *SpectralEngine) HasPreviousFrame() bool { return e.framesDone >= 2 }

// Process computes the next spectral frame. It is a no-op unless a
// full window with a fresh hop is available; stale data remains visible
// in that case and callers must check FrameReady rather than assume
// freshness.
func (e *SpectralEngine) Process() {
	if e.ring.State() != Ready {
		return
	}

	// Retain the prior frame before overwriting.
	copy(e.prevMagnitude, e.magnitude)
	copy(e.prevPhase, e.phase)
	copy(e.prevMel, e.mel)
	e.prevTotalEnergy = e.totalEnergy
	e.prevCentroid = e.centroid

	e.ring.CopyWindow(e.input)
	for i := range e.input {
		e.input[i] *= sampleNorm * e.windowCoeffs[i]
	}

	e.fft.Coefficients(e.coeffs, e.input)

	var energy float64
	var centroidNum, centroidDen float64
	for i, c := range e.coeffs {
		mag := finiteOr(cmplx.Abs(c), 0)
		e.magnitude[i] = mag
		e.phase[i] = finiteOr(cmplx.Phase(c), 0)
		if i > 0 { // DC excluded from energy
			energy += mag * mag
		}
		centroidNum += float64(i) * mag
		centroidDen += mag
	}
	e.totalEnergy = finiteOr(energy, 0)

	if centroidDen > 1e-12 {
		e.centroid = finiteOr(centroidNum/centroidDen*BinHz, 0)
	} else {
		e.centroid = 0
	}

	for m, weights := range e.melBank {
		var bandEnergy float64
		for k, w := range weights {
			if w == 0 {
				continue
			}
			bandEnergy += w * e.magnitude[k] * e.magnitude[k]
		}
		e.mel[m] = compressMel(bandEnergy)
	}

	e.framesDone++
}

// compressMel log-compresses a band energy and maps it from the fixed
// dB range onto [0,1]. True silence maps to exactly 0.
func compressMel(energy float64) float64 {
	if energy <= silenceEnergy {
		return 0
	}
	db := 10.0 * math.Log10(energy+silenceEnergy)
	v := (db - melFloorDB) / -melFloorDB
	return finiteOr(clamp01(v), 0)
}

// Magnitude returns the live frame's linear-bin magnitudes. The slice
// is borrowed: valid only until the next Process call.
func (e *SpectralEngine) Magnitude() []float64 { return e.magnitude }

// Phase returns the live frame's per-bin phase in radians (borrowed).
func (e *SpectralEngine) Phase() []float64 { return e.phase }

// Mel returns the live frame's compressed mel band energies (borrowed).
func (e *SpectralEngine) Mel() []float64 { return e.mel }

// PrevMagnitude returns the prior frame's magnitudes (borrowed).
func (e *SpectralEngine) PrevMagnitude() []float64 { return e.prevMagnitude }

// PrevPhase returns the prior frame's phases (borrowed).
func (e *SpectralEngine) PrevPhase() []float64 { return e.prevPhase }

// PrevMel returns the prior frame's mel band energies (borrowed).
func (e *SpectralEngine) PrevMel() []float64 { return e.prevMel }

// TotalEnergy returns the live frame's summed squared magnitude,
// excluding DC.
func (e *SpectralEngine) TotalEnergy() float64 { return e.totalEnergy }

// Centroid returns the live frame's magnitude-weighted mean frequency
// in Hz.
func (e *SpectralEngine) Centroid() float64 { return e.centroid }

// FrequencyForBin returns the center frequency in Hz of a linear bin,
// or 0 for out-of-range indices.
func (e *SpectralEngine) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= SpectralBins {
		return 0
	}
	return float64(bin) * BinHz
}

// Reset clears all buffered samples and frame state.
func (e *SpectralEngine) Reset() {
	e.ring.Reset()
	zero(e.magnitude)
	zero(e.phase)
	zero(e.mel)
	zero(e.prevMagnitude)
	zero(e.prevPhase)
	zero(e.prevMel)
	e.totalEnergy = 0
	e.prevTotalEnergy = 0
	e.centroid = 0
	e.prevCentroid = 0
	e.framesDone = 0
}

// finiteOr replaces NaN/Inf with a fallback so degenerate inputs never
// escape an accessor.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
