// SPDX-License-Identifier: MIT
// Package testsig generates synthetic int16 PCM signals for tests:
// sines, broadband clicks, swells, and silence.
package testsig

import "math"

// Silence returns n zero samples.
func Silence(n int) []int16 {
	return make([]int16, n)
}

// Sine returns n samples of a sine at frequency hz, scaled to amplitude
// (0..1 of full scale).
func Sine(n int, sampleRate, hz, amplitude float64) []int16 {
	buf := make([]int16, n)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = int16(math.Sin(2*math.Pi*hz*t) * amplitude * 32767.0)
	}
	return buf
}

// Click returns n samples of silence with a rectangular burst of
// clickLen samples at offset. The short burst spreads energy broadband
// across the low and mid spectrum, like a drum hit's attack.
func Click(n, offset, clickLen int, amplitude float64) []int16 {
	buf := make([]int16, n)
	for i := range clickLen {
		idx := offset + i
		if idx >= n {
			break
		}
		buf[idx] = int16(amplitude * 32767.0)
	}
	return buf
}

// Swell returns n samples of a sine at hz whose amplitude ramps
// linearly from 0 to peak, simulating a pad or slow volume swell.
func Swell(n int, sampleRate, hz, peak float64) []int16 {
	buf := make([]int16, n)
	for i := range buf {
		t := float64(i) / sampleRate
		amp := peak * float64(i) / float64(n)
		buf[i] = int16(math.Sin(2*math.Pi*hz*t) * amp * 32767.0)
	}
	return buf
}

// ComplexWave returns n samples of a 440 Hz fundamental plus two
// harmonics, useful as generic "music-like" content.
func ComplexWave(n int, sampleRate float64) []int16 {
	buf := make([]int16, n)
	for i := range buf {
		t := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		buf[i] = int16(signal * 32767.0 * 0.9)
	}
	return buf
}

// FindPeak returns the index of the largest value in values between
// start and end inclusive.
func FindPeak(values []float64, start, end int) int {
	if len(values) == 0 {
		return 0
	}
	if start < 0 {
		start = 0
	}
	if end >= len(values) {
		end = len(values) - 1
	}
	peak := start
	for i := start + 1; i <= end; i++ {
		if values[i] > values[peak] {
			peak = i
		}
	}
	return peak
}
