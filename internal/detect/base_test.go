// SPDX-License-Identifier: MIT
package detect

import (
	"math"
	"testing"
)

func TestConfigureSanitizes(t *testing.T) {
	tests := []struct {
		name          string
		in            Config
		wantWeight    float64
		wantThreshold float64
	}{
		{"weight above one", Config{Weight: 3.0, Threshold: 0.1}, 1.0, 0.1},
		{"negative weight", Config{Weight: -0.5, Threshold: 0.1}, 0, 0.1},
		{"negative threshold", Config{Weight: 0.5, Threshold: -1}, 0.5, 0},
		{"nan threshold", Config{Weight: 0.5, Threshold: math.NaN()}, 0.5, 0},
		{"inf threshold", Config{Weight: 0.5, Threshold: math.Inf(1)}, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b base
			b.Configure(tt.in)
			if b.cfg.Weight != tt.wantWeight {
				t.Errorf("weight = %v, want %v", b.cfg.Weight, tt.wantWeight)
			}
			if b.cfg.Threshold != tt.wantThreshold {
				t.Errorf("threshold = %v, want %v", b.cfg.Threshold, tt.wantThreshold)
			}
		})
	}
}

func TestAdaptiveThresholdColdStart(t *testing.T) {
	var b base
	b.push(0.5)
	b.push(0.5)

	// Fewer than 3 samples: the floor is returned directly.
	if thr := b.adaptiveThreshold(2.0, 0.07); thr != 0.07 {
		t.Errorf("cold-start threshold = %v, want floor 0.07", thr)
	}
}

func TestAdaptiveThresholdTracksMedian(t *testing.T) {
	var b base
	for _, v := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		b.push(v)
	}

	// Median of the five values is 0.3.
	if thr := b.adaptiveThreshold(2.0, 0.01); thr != 0.6 {
		t.Errorf("threshold = %v, want 0.6 (median 0.3 * 2.0)", thr)
	}

	// The floor wins when the scaled median falls below it.
	if thr := b.adaptiveThreshold(0.1, 0.5); thr != 0.5 {
		t.Errorf("threshold = %v, want floor 0.5", thr)
	}
}

func TestMedianIgnoresInsertionOrder(t *testing.T) {
	var a, b base
	for _, v := range []float64{0.9, 0.1, 0.5, 0.3, 0.7} {
		a.push(v)
	}
	for _, v := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		b.push(v)
	}
	if a.median() != b.median() {
		t.Errorf("median depends on order: %v vs %v", a.median(), b.median())
	}
	if m := a.median(); m != 0.5 {
		t.Errorf("median = %v, want 0.5", m)
	}
}

func TestHistoryRingWrapsAround(t *testing.T) {
	var b base
	// Fill well past capacity with zeros, then a run of ones. The old
	// zeros must age out of the median.
	for range historyLen {
		b.push(0)
	}
	for range historyLen {
		b.push(1)
	}
	if m := b.median(); m != 1 {
		t.Errorf("median after wrap = %v, want 1", m)
	}
}

func TestResetBasePreservesConfig(t *testing.T) {
	var b base
	b.Configure(Config{Weight: 0.4, Threshold: 0.2, Enabled: true})
	b.push(0.9)
	b.resetBase()

	if b.histLen != 0 || b.LastValue() != 0 || b.LastThreshold() != 0 {
		t.Error("resetBase should clear history and diagnostics")
	}
	if b.cfg.Weight != 0.4 || b.cfg.Threshold != 0.2 || !b.cfg.Enabled {
		t.Error("resetBase should preserve the config")
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); got != tt.want {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSafeRatio(t *testing.T) {
	if got := safeRatio(1, 0, 0.42); got != 0.42 {
		t.Errorf("zero denominator: got %v, want fallback", got)
	}
	if got := safeRatio(1, 1e-15, 0.42); got != 0.42 {
		t.Errorf("near-zero denominator: got %v, want fallback", got)
	}
	if got := safeRatio(6, 3, 0); got != 2 {
		t.Errorf("safeRatio(6,3) = %v, want 2", got)
	}
}

func TestBassBinRange(t *testing.T) {
	lo, hi := bassBinRange(62.0, 375.0)
	if lo != 1 || hi != 11 {
		t.Errorf("bassBinRange(62, 375) = (%d, %d), want (1, 11)", lo, hi)
	}

	lo, hi = bassBinRange(1000.0, 2000.0)
	if lo <= hi {
		t.Errorf("out-of-band range should be empty, got (%d, %d)", lo, hi)
	}
}
