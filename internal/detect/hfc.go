// SPDX-License-Identifier: MIT
package detect

const (
	hfcAttackRatio = 1.25
	hfcMedianScale = 1.7
)

// HighFrequencyDetector computes high-frequency content: a
// quadratic-bin-weighted sum of squared magnitudes, which emphasizes
// the broadband high-end splash of percussive attacks. It fires only
// when the value both rises sharply against the previous frame
// (attack-ratio gate) and clears the adaptive threshold.
type HighFrequencyDetector struct {
	base
	prevHFC float64
	hasPrev bool
}

// NewHighFrequencyDetector returns an HFC detector with the given
// initial config.
func NewHighFrequencyDetector(cfg Config) *HighFrequencyDetector {
	d := &HighFrequencyDetector{}
	d.Configure(cfg)
	return d
}

func (d *HighFrequencyDetector) Type() Type                 { return HighFrequency }
func (d *HighFrequencyDetector) RequiresSpectralData() bool { return true }

func (d *HighFrequencyDetector) Detect(frame *Frame, dt float64) Result {
	if !frame.SpectralValid {
		return Result{}
	}
	mag := frame.Magnitude
	n := len(mag)
	if n < 2 {
		return Result{}
	}

	var hfc float64
	for i := 1; i < n; i++ {
		w := float64(i) / float64(n-1)
		hfc += w * w * mag[i] * mag[i]
	}

	prev := d.prevHFC
	prevValid := d.hasPrev
	d.prevHFC = hfc
	d.hasPrev = true
	d.push(hfc)

	thr := d.adaptiveThreshold(hfcMedianScale, d.cfg.Threshold)

	if !prevValid || hfc <= thr {
		return Result{}
	}
	ratio := safeRatio(hfc, maxf(prev, 1e-9), 0)
	if ratio < hfcAttackRatio {
		return Result{}
	}

	strength := clamp01(safeRatio(hfc, thr*3.0, 0))
	confidence := clamp01((ratio - hfcAttackRatio) / hfcAttackRatio)
	return Result{Strength: strength, Confidence: confidence, Detected: true}
}

func (d *HighFrequencyDetector) Reset() {
	d.resetBase()
	d.prevHFC = 0
	d.hasPrev = false
}
