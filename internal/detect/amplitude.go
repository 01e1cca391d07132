// SPDX-License-Identifier: MIT
package detect

const (
	ampLookback      = 4
	ampBaselineRatio = 1.35
	ampMinRise       = 0.015
	ampMedianScale   = 1.6
)

// AmplitudeDetector fires on sharp attacks in the time-domain level.
// The current level must clear both a short lookback baseline and the
// local median threshold, and must have risen by a minimum amount since
// the previous frame, which rejects slow swells.
type AmplitudeDetector struct {
	base

	lookback [ampLookback]float64
	lookIdx  int
	lookLen  int
	prev     float64
	hasPrev  bool
}

// NewAmplitudeDetector returns an amplitude/attack detector with the
// given initial config.
func NewAmplitudeDetector(cfg Config) *AmplitudeDetector {
	d := &AmplitudeDetector{}
	d.Configure(cfg)
	return d
}

func (d *AmplitudeDetector) Type() Type                 { return Amplitude }
func (d *AmplitudeDetector) RequiresSpectralData() bool { return false }

func (d *AmplitudeDetector) Detect(frame *Frame, dt float64) Result {
	level := clamp01(frame.Level)

	baseline := 0.0
	for i := range d.lookLen {
		baseline += d.lookback[i]
	}
	if d.lookLen > 0 {
		baseline /= float64(d.lookLen)
	}

	rise := level - d.prev
	prevValid := d.hasPrev
	haveBaseline := d.lookLen >= ampLookback

	// Reference state updates happen on every call, detection or not.
	d.lookback[d.lookIdx] = level
	d.lookIdx = (d.lookIdx + 1) % ampLookback
	if d.lookLen < ampLookback {
		d.lookLen++
	}
	d.prev = level
	d.hasPrev = true
	d.push(level)

	thr := d.adaptiveThreshold(ampMedianScale, d.cfg.Threshold)

	if !prevValid || !haveBaseline {
		return Result{}
	}
	if rise < ampMinRise {
		return Result{}
	}
	if level <= thr || level <= baseline*ampBaselineRatio {
		return Result{}
	}

	strength := clamp01(safeRatio(level-baseline, 1.0-baseline, 0))
	confidence := clamp01(safeRatio(level-thr, thr, 0))
	return Result{Strength: strength, Confidence: confidence, Detected: true}
}

func (d *AmplitudeDetector) Reset() {
	d.resetBase()
	for i := range d.lookback {
		d.lookback[i] = 0
	}
	d.lookIdx = 0
	d.lookLen = 0
	d.prev = 0
	d.hasPrev = false
}
