// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"

	"emberlight/pkg/testsig"
)

// feedSpectral feeds samples and processes every frame that becomes
// ready, returning the number of frames processed.
func feedSpectral(e *SpectralEngine, samples []int16) int {
	frames := 0
	e.AddSamples(samples)
	for e.FrameReady() {
		e.Process()
		e.ResetFrameReady()
		frames++
	}
	return frames
}

func TestSpectralSinePeakBin(t *testing.T) {
	e := NewSpectralEngine()

	// 1 kHz sits exactly on bin 32 (1000 / 31.25).
	sine := testsig.Sine(SpectralWindowSize, SampleRate, 1000.0, 0.8)
	if frames := feedSpectral(e, sine); frames != 1 {
		t.Fatalf("processed %d frames, want 1", frames)
	}

	peak := testsig.FindPeak(e.Magnitude(), 1, SpectralBins-1)
	if peak != 32 {
		t.Errorf("peak bin = %d (%.1f Hz), want 32 (1000 Hz)",
			peak, e.FrequencyForBin(peak))
	}
	if e.TotalEnergy() <= 0 {
		t.Error("sine frame should carry energy")
	}
}

func TestSpectralCentroidTracksSine(t *testing.T) {
	e := NewSpectralEngine()
	feedSpectral(e, testsig.Sine(SpectralWindowSize, SampleRate, 2000.0, 0.8))

	c := e.Centroid()
	if c < 1800 || c > 2200 {
		t.Errorf("centroid = %.1f Hz, want ~2000 Hz", c)
	}
}

func TestSpectralSilenceIsExactlyZero(t *testing.T) {
	e := NewSpectralEngine()

	// One full second of silence, fed in hop-sized batches.
	for range int(SampleRate) / SpectralHopSize {
		feedSpectral(e, testsig.Silence(SpectralHopSize))

		if e.TotalEnergy() != 0 {
			t.Fatalf("silence produced totalEnergy %v, want exactly 0", e.TotalEnergy())
		}
		for i, m := range e.Mel() {
			if m != 0 {
				t.Fatalf("silence produced mel[%d] = %v, want exactly 0", i, m)
			}
		}
		if e.Centroid() != 0 {
			t.Fatalf("silence produced centroid %v, want 0", e.Centroid())
		}
	}
}

func TestSpectralPreviousFrameRetained(t *testing.T) {
	e := NewSpectralEngine()

	if e.HasPreviousFrame() {
		t.Error("fresh engine should not report a previous frame")
	}

	feedSpectral(e, testsig.Sine(SpectralWindowSize, SampleRate, 1000.0, 0.8))
	if e.HasPreviousFrame() {
		t.Error("one frame is not enough for a previous frame")
	}

	firstPeak := e.Magnitude()[32]
	feedSpectral(e, testsig.Silence(SpectralHopSize))

	if !e.HasPreviousFrame() {
		t.Fatal("two frames processed, previous frame should be available")
	}
	if prev := e.PrevMagnitude()[32]; prev != firstPeak {
		t.Errorf("prev magnitude[32] = %v, want retained %v", prev, firstPeak)
	}
}

func TestSpectralProcessNoOpWhenNotReady(t *testing.T) {
	e := NewSpectralEngine()
	feedSpectral(e, testsig.Sine(SpectralWindowSize, SampleRate, 1000.0, 0.8))

	before := e.Magnitude()[32]
	e.Process() // no fresh hop: must not touch the live frame
	if e.Magnitude()[32] != before {
		t.Error("Process without a ready frame overwrote live data")
	}
}

func TestSpectralReset(t *testing.T) {
	e := NewSpectralEngine()
	feedSpectral(e, testsig.Sine(SpectralWindowSize*2, SampleRate, 1000.0, 0.8))
	e.Reset()

	if e.TotalEnergy() != 0 || e.HasPreviousFrame() {
		t.Error("reset engine should hold no frame state")
	}
	for _, m := range e.Magnitude() {
		if m != 0 {
			t.Fatal("reset engine should hold zero magnitudes")
		}
	}
}

func TestCompressMelRange(t *testing.T) {
	tests := []struct {
		name   string
		energy float64
		want   float64
	}{
		{"true silence", 0, 0},
		{"below silence floor", 1e-12, 0},
		{"negative guard", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compressMel(tt.energy); got != tt.want {
				t.Errorf("compressMel(%v) = %v, want %v", tt.energy, got, tt.want)
			}
		})
	}

	// Any audible energy must land strictly inside (0, 1].
	for _, energy := range []float64{1e-6, 1e-3, 0.5, 1.0, 100.0} {
		v := compressMel(energy)
		if v <= 0 || v > 1 || math.IsNaN(v) {
			t.Errorf("compressMel(%v) = %v, want in (0, 1]", energy, v)
		}
	}
}

func TestSpectralProcessZeroAllocs(t *testing.T) {
	e := NewSpectralEngine()
	batch := testsig.Sine(SpectralHopSize, SampleRate, 440.0, 0.5)

	allocs := testing.AllocsPerRun(100, func() {
		e.AddSamples(batch)
		e.Process()
		e.ResetFrameReady()
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations per frame, got %.1f", allocs)
	}
}

func BenchmarkSpectralProcess(b *testing.B) {
	e := NewSpectralEngine()
	batch := testsig.Sine(SpectralHopSize, SampleRate, 440.0, 0.5)

	b.ReportAllocs()
	for b.Loop() {
		e.AddSamples(batch)
		e.Process()
		e.ResetFrameReady()
	}
}
