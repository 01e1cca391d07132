// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"testing"
)

var (
	quietBuffer = makeBuffer(256, 100)   // well below any practical gate
	loudBuffer  = makeBuffer(256, 20000) // loud signal
	testBuffer  = makeBuffer(256, 8000)  // moderate signal

	maxInt16f     = float64(math.MaxInt16)
	lowThreshold  = int16(maxInt16f * 0.001)
	highThreshold = int16(maxInt16f * 0.9)
)

// makeBuffer returns a buffer alternating +/-peak, worst case for the
// branchless absolute value.
func makeBuffer(n int, peak int16) []int16 {
	buf := make([]int16, n)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = peak
		} else {
			buf[i] = -peak
		}
	}
	return buf
}

func formatFloat(v float64) string { return fmt.Sprintf("%.4f", v) }

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestGateEnableDisable(t *testing.T) {
	engine := &Engine{
		gateEnabled:   false,
		gateThreshold: lowThreshold,
	}

	engine.EnableGate()
	if !engine.gateEnabled {
		t.Error("Gate should be enabled after EnableGate()")
	}

	engine.DisableGate()
	if engine.gateEnabled {
		t.Error("Gate should be disabled after DisableGate()")
	}

	engine.EnableGate()
	engine.EnableGate() // Multiple calls should be idempotent
	if !engine.gateEnabled {
		t.Error("Gate should remain enabled after multiple EnableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	engine := &Engine{gateEnabled: true}

	for _, tt := range tests {
		t.Run(formatFloat(tt.input), func(t *testing.T) {
			engine.SetGateThreshold(tt.input)
			got := engine.GetGateThreshold()

			if absFloat(got-tt.expected) > 0.001 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateThresholdPrecision(t *testing.T) {
	engine := &Engine{}

	for _, ratio := range []float64{0.0, 0.1, 0.25, 0.5, 0.75, 0.999, 1.0} {
		t.Run(formatFloat(ratio), func(t *testing.T) {
			engine.SetGateThreshold(ratio)
			result := engine.GetGateThreshold()

			// int16 quantization: one step is ~3e-5.
			if absFloat(result-ratio) > 0.0001 {
				t.Errorf("Threshold conversion error: got %.6f, want %.6f", result, ratio)
			}
		})
	}
}

func TestGatePassed(t *testing.T) {
	tests := []struct {
		desc          string
		buffer        []int16
		gateEnabled   bool
		threshold     float64
		shouldTrigger bool
	}{
		{"Gate disabled/Quiet signal", quietBuffer, false, 0.1, true},
		{"Gate disabled/Loud signal", loudBuffer, false, 0.1, true},
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, true, 0.0001, true},
		{"Gate enabled/Quiet signal/Mid threshold", quietBuffer, true, 0.1, false},
		{"Gate enabled/Loud signal/Mid threshold", loudBuffer, true, 0.1, true},
		{"Gate enabled/Loud signal/High threshold", loudBuffer, true, 0.999, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := &Engine{gateEnabled: tt.gateEnabled}
			engine.SetGateThreshold(tt.threshold)

			if got := engine.gatePassed(tt.buffer); got != tt.shouldTrigger {
				t.Errorf("gatePassed = %v, want %v (threshold=%d)",
					got, tt.shouldTrigger, engine.gateThreshold)
			}
		})
	}
}

func TestGatePassedNegativePeakOnly(t *testing.T) {
	// The branchless absolute value must catch a buffer whose peak is
	// purely negative.
	buf := make([]int16, 64)
	buf[10] = -20000

	engine := &Engine{gateEnabled: true}
	engine.SetGateThreshold(0.1)
	if !engine.gatePassed(buf) {
		t.Error("negative peak above threshold should pass the gate")
	}
}

func TestGatePassedZeroAllocs(t *testing.T) {
	engine := &Engine{gateEnabled: true, gateThreshold: lowThreshold}

	allocs := testing.AllocsPerRun(100, func() {
		engine.gatePassed(testBuffer)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in gate check, got %.1f", allocs)
	}
}

func BenchmarkGateProcessing(b *testing.B) {
	benchmarks := []struct {
		name      string
		buffer    []int16
		threshold int16
		enabled   bool
	}{
		{"Gate disabled/Normal", testBuffer, lowThreshold, false},
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, lowThreshold, true},
		{"Gate enabled/Normal signal/Low threshold", testBuffer, lowThreshold, true},
		{"Gate enabled/Loud signal/High threshold", loudBuffer, highThreshold, true},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			engine := &Engine{
				gateEnabled:   bm.enabled,
				gateThreshold: bm.threshold,
			}

			b.ReportAllocs()
			for b.Loop() {
				_ = engine.gatePassed(bm.buffer)
			}
		})
	}
}
