// SPDX-License-Identifier: MIT
package dsp

import "math"

// hzToMel converts a frequency in Hz to the mel scale.
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts a mel-scale value back to Hz.
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// newMelFilterBank builds a triangular mel filterbank: numBands filters
// spanning [lowHz, highHz], each row holding one weight per linear FFT
// bin (fftSize/2+1 bins). Adjacent filters overlap at their band edges.
func newMelFilterBank(numBands, fftSize int, sampleRate, lowHz, highHz float64) [][]float64 {
	numBins := fftSize/2 + 1
	binHz := sampleRate / float64(fftSize)

	lowMel := hzToMel(lowHz)
	highMel := hzToMel(highHz)
	melStep := (highMel - lowMel) / float64(numBands+1)

	// Band edge frequencies: numBands filters need numBands+2 edges.
	edges := make([]float64, numBands+2)
	for i := range edges {
		edges[i] = melToHz(lowMel + float64(i)*melStep)
	}

	bank := make([][]float64, numBands)
	for m := range numBands {
		weights := make([]float64, numBins)
		lo, center, hi := edges[m], edges[m+1], edges[m+2]
		for k := range numBins {
			f := float64(k) * binHz
			switch {
			case f <= lo || f >= hi:
				// outside the triangle
			case f <= center:
				weights[k] = (f - lo) / (center - lo)
			default:
				weights[k] = (hi - f) / (hi - center)
			}
		}
		bank[m] = weights
	}
	return bank
}
