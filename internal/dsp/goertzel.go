// SPDX-License-Identifier: MIT
package dsp

import "math"

// Goertzel is a recursive two-pole resonator tuned to a single target
// frequency. It computes the magnitude at one bin without a full
// transform, which is cheaper than an FFT when only a handful of bins
// are needed.
type Goertzel struct {
	coeff float64
	q1    float64
	q2    float64
}

// NewGoertzel creates a resonator tuned to targetHz at the given sample
// rate.
func NewGoertzel(targetHz, sampleRate float64) Goertzel {
	return Goertzel{
		coeff: 2.0 * math.Cos(2.0*math.Pi*targetHz/sampleRate),
	}
}

// Reset clears the resonator state. Call before processing each block.
func (g *Goertzel) Reset() {
	g.q1 = 0
	g.q2 = 0
}

// ProcessBlock runs the recurrence over a block of samples.
func (g *Goertzel) ProcessBlock(samples []float64) {
	q1, q2 := g.q1, g.q2
	for _, s := range samples {
		q0 := g.coeff*q1 - q2 + s
		q2 = q1
		q1 = q0
	}
	g.q1, g.q2 = q1, q2
}

// Magnitude returns the magnitude of the tuned bin for the block
// processed since the last Reset. Numerical noise can push the squared
// magnitude slightly negative; that case returns 0.
func (g *Goertzel) Magnitude() float64 {
	m2 := g.q1*g.q1 + g.q2*g.q2 - g.q1*g.q2*g.coeff
	if m2 < 0 {
		return 0
	}
	return math.Sqrt(m2)
}
