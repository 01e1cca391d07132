// SPDX-License-Identifier: MIT
package detect

import "math"

// historyLen is the length of the raw-value history each detector keeps
// for its adaptive threshold (~0.5 s at the spectral frame rate).
const historyLen = 32

// base provides the shared mechanics every detector embeds: a small
// circular buffer of recent raw values, a median-based local adaptive
// threshold, and the last value/threshold kept for diagnostics.
type base struct {
	cfg Config

	history [historyLen]float64
	scratch [historyLen]float64
	histIdx int
	histLen int

	lastValue     float64
	lastThreshold float64
}

// Configure applies a detector config, clamping the weight to [0,1].
func (b *base) Configure(cfg Config) {
	cfg.Weight = clamp01(cfg.Weight)
	if math.IsNaN(cfg.Threshold) || math.IsInf(cfg.Threshold, 0) || cfg.Threshold < 0 {
		cfg.Threshold = 0
	}
	b.cfg = cfg
}

// push records a raw detector value into the history ring.
func (b *base) push(v float64) {
	b.history[b.histIdx] = v
	b.histIdx = (b.histIdx + 1) % historyLen
	if b.histLen < historyLen {
		b.histLen++
	}
	b.lastValue = v
}

// adaptiveThreshold returns the local median of recent raw values
// scaled by s, never below floor. With fewer than 3 samples buffered
// the cold-start floor is returned directly.
func (b *base) adaptiveThreshold(scale, floor float64) float64 {
	if b.histLen < 3 {
		b.lastThreshold = floor
		return floor
	}
	m := b.median()
	thr := m * scale
	if thr < floor {
		thr = floor
	}
	b.lastThreshold = thr
	return thr
}

// median computes the median of the buffered history via a partial
// insertion sort: only positions up to the median index need to be in
// their final place.
func (b *base) median() float64 {
	n := b.histLen
	copy(b.scratch[:n], b.history[:n])
	mid := n / 2
	for i := 0; i <= mid; i++ {
		minIdx := i
		for j := i + 1; j < n; j++ {
			if b.scratch[j] < b.scratch[minIdx] {
				minIdx = j
			}
		}
		b.scratch[i], b.scratch[minIdx] = b.scratch[minIdx], b.scratch[i]
	}
	return b.scratch[mid]
}

// resetBase clears the history and diagnostics, preserving the config.
func (b *base) resetBase() {
	for i := range b.history {
		b.history[i] = 0
	}
	b.histIdx = 0
	b.histLen = 0
	b.lastValue = 0
	b.lastThreshold = 0
}

// LastValue returns the most recent raw detector value (diagnostics).
func (b *base) LastValue() float64 { return b.lastValue }

// LastThreshold returns the most recent adaptive threshold
// (diagnostics).
func (b *base) LastThreshold() float64 { return b.lastThreshold }

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// safeRatio divides a by b, returning fallback when the denominator is
// too close to zero for the quotient to be meaningful.
func safeRatio(a, b, fallback float64) float64 {
	if b < 1e-12 && b > -1e-12 {
		return fallback
	}
	v := a / b
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
