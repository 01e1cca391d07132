// SPDX-License-Identifier: MIT
package dsp

import "emberlight/pkg/bitint"

// FrameState tracks whether a ring has accumulated enough new samples
// for the next analysis frame. Modeled as an explicit two-state machine
// (not a bool) so the "already consumed" transition is visible in tests.
type FrameState int

const (
	// Filling means fewer than a hop of new samples have arrived since
	// the last consumed frame.
	Filling FrameState = iota
	// Ready means a full analysis window is available and at least one
	// hop of fresh samples has accumulated.
	Ready
)

// SampleRing is a fixed-capacity circular buffer of int16 PCM samples.
// The capacity equals the analysis window size; the hop may be smaller
// than the window, in which case consecutive frames overlap. The ring
// owns its storage and performs no allocation after construction.
//
// Not safe for concurrent use. The caller must hand off a consistent,
// non-concurrently-mutated batch on each Write call.
type SampleRing struct {
	data     []int16
	writeIdx int
	window   int
	hop      int

	newSamples int // samples written since the last frame consumption
	totalSeen  int // lifetime samples written, saturates at window
	state      FrameState
}

// NewSampleRing creates a ring sized for the given analysis window and
// hop. The window must be a power of two and the hop must be in
// (0, window].
func NewSampleRing(window, hop int) *SampleRing {
	if !bitint.IsPowerOfTwo(window) {
		window = bitint.NextPowerOfTwo(window)
	}
	if hop <= 0 || hop > window {
		hop = window
	}
	return &SampleRing{
		data:   make([]int16, window),
		window: window,
		hop:    hop,
	}
}

// Write appends samples to the ring, overwriting the oldest data once
// the buffer wraps. It returns true when a frame is ready: the window
// is full and at least one hop of new samples has arrived since the
// last Consume.
func (r *SampleRing) Write(samples []int16) bool {
	for _, s := range samples {
		r.data[r.writeIdx] = s
		r.writeIdx = (r.writeIdx + 1) % r.window
	}
	r.newSamples += len(samples)
	if r.totalSeen < r.window {
		r.totalSeen += len(samples)
		if r.totalSeen > r.window {
			r.totalSeen = r.window
		}
	}
	r.updateState()
	return r.state == Ready
}

// CopyWindow copies the most recent window of samples, oldest first,
// into dst. dst must have length >= the window size. Returns the number
// of samples copied.
func (r *SampleRing) CopyWindow(dst []float64) int {
	if len(dst) < r.window {
		return 0
	}
	// writeIdx points at the oldest sample because capacity == window.
	for i := range r.window {
		dst[i] = float64(r.data[(r.writeIdx+i)%r.window])
	}
	return r.window
}

// Consume marks one hop of samples as used, moving the ring back to
// Filling unless another full hop has already accumulated. A ring that
// is not Ready has no frame to spend, so Consume keeps its partially
// accumulated samples untouched.
func (r *SampleRing) Consume() {
	if r.state != Ready {
		return
	}
	r.newSamples -= r.hop
	r.updateState()
}

// State returns the current frame state.
func (r *SampleRing) State() FrameState { return r.state }

// Window returns the analysis window size in samples.
func (r *SampleRing) Window() int { return r.window }

// Hop returns the hop size in samples.
func (r *SampleRing) Hop() int { return r.hop }

// Reset clears all buffered samples and returns the ring to Filling.
func (r *SampleRing) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}
	r.writeIdx = 0
	r.newSamples = 0
	r.totalSeen = 0
	r.state = Filling
}

func (r *SampleRing) updateState() {
	if r.totalSeen >= r.window && r.newSamples >= r.hop {
		r.state = Ready
	} else {
		r.state = Filling
	}
}
