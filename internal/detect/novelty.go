// SPDX-License-Identifier: MIT
package detect

import "math"

const noveltyMedianScale = 1.9

// NoveltyDetector computes the cosine distance between consecutive mel
// band vectors. Spectral shape change is independent of loudness, so
// this detector is amplitude-invariant: a timbre switch at constant
// volume still registers.
type NoveltyDetector struct {
	base
}

// NewNoveltyDetector returns a spectral novelty detector with the given
// initial config.
func NewNoveltyDetector(cfg Config) *NoveltyDetector {
	d := &NoveltyDetector{}
	d.Configure(cfg)
	return d
}

func (d *NoveltyDetector) Type() Type                 { return SpectralNovelty }
func (d *NoveltyDetector) RequiresSpectralData() bool { return true }

func (d *NoveltyDetector) Detect(frame *Frame, dt float64) Result {
	if !frame.SpectralValid || !frame.HasPrevFrame {
		return Result{}
	}
	cur, prev := frame.Mel, frame.PrevMel
	n := min(len(cur), len(prev))
	if n == 0 {
		return Result{}
	}

	var dot, normCur, normPrev float64
	for i := range n {
		dot += cur[i] * prev[i]
		normCur += cur[i] * cur[i]
		normPrev += prev[i] * prev[i]
	}

	// Either vector being (near) zero means silence on one side; shape
	// distance is undefined there, so report no change.
	den := math.Sqrt(normCur) * math.Sqrt(normPrev)
	distance := 0.0
	if den > 1e-9 {
		distance = clamp01(1.0 - dot/den)
	}

	d.push(distance)
	thr := d.adaptiveThreshold(noveltyMedianScale, d.cfg.Threshold)

	if distance <= thr {
		return Result{}
	}
	strength := clamp01(safeRatio(distance, thr*2.5, 0))
	confidence := clamp01(safeRatio(distance-thr, thr, 0))
	return Result{Strength: strength, Confidence: confidence, Detected: true}
}

func (d *NoveltyDetector) Reset() { d.resetBase() }
