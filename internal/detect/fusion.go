// SPDX-License-Identifier: MIT
package detect

import (
	"time"

	"emberlight/internal/log"
)

// Fusion defaults. The agreement boost table is calibrated so that a
// lone detector is suppressed while three or more agreeing detectors
// are boosted: independent algorithms rarely all fire on noise, but a
// real hit usually triggers several.
const (
	DefaultNoiseGate     = 0.01
	DefaultMinConfidence = 0.3
	DefaultCooldown      = 120 * time.Millisecond

	adaptiveCooldownMin = 50 * time.Millisecond
	adaptiveCooldownMax = 250 * time.Millisecond
	minTempoBPM         = 30.0
)

// agreementBoost maps the count of agreeing detectors (0..NumDetectors)
// to a confidence multiplier. Monotonically non-decreasing.
var agreementBoost = [NumDetectors + 1]float64{0, 0.6, 0.85, 1.0, 1.1, 1.15, 1.2, 1.2}

// Output is the ensemble's single externally visible artifact: one per
// orchestrator tick.
type Output struct {
	TransientStrength float64 `json:"transient_strength"` // [0,1], 0 while cooling down
	Confidence        float64 `json:"confidence"`         // [0,1]
	Agreement         int     `json:"agreement"`          // count of agreeing detectors
	Dominant          Type    `json:"dominant"`           // strongest contributor, None if no detection
}

// Fusion combines per-detector verdicts into one decision. It owns the
// detector configs, the noise gate, the agreement table, and the single
// ensemble-wide cooldown; detectors themselves never apply hysteresis.
type Fusion struct {
	configs [NumDetectors]Config

	noiseGate     float64
	minConfidence float64
	cooldown      time.Duration

	adaptiveCooldown bool
	tempoBPM         float64

	lastAccepted   time.Duration
	hasLastAccept  bool
	configListener func(Type, Config)
}

// NewFusion returns a fusion stage with calibrated default weights.
func NewFusion() *Fusion {
	f := &Fusion{}
	f.ResetToDefaults()
	return f
}

// defaultConfigs returns the calibrated per-detector defaults.
func defaultConfigs() [NumDetectors]Config {
	return [NumDetectors]Config{
		Amplitude:       {Weight: 0.20, Threshold: 0.05, Enabled: true},
		SpectralFlux:    {Weight: 0.20, Threshold: 0.01, Enabled: true},
		HighFrequency:   {Weight: 0.10, Threshold: 0.02, Enabled: true},
		BassFlux:        {Weight: 0.15, Threshold: 0.04, Enabled: true},
		ComplexDomain:   {Weight: 0.10, Threshold: 0.03, Enabled: true},
		SpectralNovelty: {Weight: 0.10, Threshold: 0.05, Enabled: true},
		BandFlux:        {Weight: 0.15, Threshold: 0.05, Enabled: true},
	}
}

// ResetToDefaults restores all detector configs and fusion parameters.
// Idempotent: calling it twice yields the same state as calling it
// once. Cooldown history is preserved.
func (f *Fusion) ResetToDefaults() {
	f.configs = defaultConfigs()
	f.noiseGate = DefaultNoiseGate
	f.minConfidence = DefaultMinConfidence
	f.cooldown = DefaultCooldown
	f.adaptiveCooldown = false
	f.tempoBPM = 0
	if f.configListener != nil {
		for t := range NumDetectors {
			f.configListener(Type(t), f.configs[t])
		}
	}
}

// onConfigChange registers a callback invoked whenever a detector's
// config changes, so the orchestrator can push it into the detector.
func (f *Fusion) onConfigChange(fn func(Type, Config)) {
	f.configListener = fn
}

// ConfigureDetector replaces one detector's config. Out-of-range types
// are rejected as a no-op.
func (f *Fusion) ConfigureDetector(t Type, cfg Config) bool {
	if !t.Valid() {
		log.Debugf("fusion: rejecting config for invalid detector type %d", t)
		return false
	}
	cfg.Weight = clamp01(cfg.Weight)
	f.configs[t] = cfg
	if f.configListener != nil {
		f.configListener(t, cfg)
	}
	return true
}

// SetWeight updates one detector's fusion weight, clamped to [0,1].
func (f *Fusion) SetWeight(t Type, w float64) bool {
	if !t.Valid() {
		log.Debugf("fusion: rejecting weight for invalid detector type %d", t)
		return false
	}
	cfg := f.configs[t]
	cfg.Weight = clamp01(w)
	return f.ConfigureDetector(t, cfg)
}

// SetEnabled enables or disables one detector.
func (f *Fusion) SetEnabled(t Type, enabled bool) bool {
	if !t.Valid() {
		log.Debugf("fusion: rejecting enable for invalid detector type %d", t)
		return false
	}
	cfg := f.configs[t]
	cfg.Enabled = enabled
	return f.ConfigureDetector(t, cfg)
}

// SetThreshold updates one detector's threshold.
func (f *Fusion) SetThreshold(t Type, threshold float64) bool {
	if !t.Valid() {
		log.Debugf("fusion: rejecting threshold for invalid detector type %d", t)
		return false
	}
	cfg := f.configs[t]
	cfg.Threshold = threshold
	return f.ConfigureDetector(t, cfg)
}

// DetectorConfig returns one detector's current config; the zero Config
// for invalid types.
func (f *Fusion) DetectorConfig(t Type) Config {
	if !t.Valid() {
		return Config{}
	}
	return f.configs[t]
}

// Enabled reports whether a detector participates in fusion.
func (f *Fusion) Enabled(t Type) bool {
	return t.Valid() && f.configs[t].Enabled
}

// SetTempoHint supplies an externally estimated tempo. Hints below
// 30 BPM are ignored.
func (f *Fusion) SetTempoHint(bpm float64) {
	if bpm < minTempoBPM {
		f.tempoBPM = 0
		return
	}
	f.tempoBPM = bpm
}

// SetAdaptiveCooldown toggles tempo-derived cooldown scaling.
func (f *Fusion) SetAdaptiveCooldown(enabled bool) { f.adaptiveCooldown = enabled }

// SetCooldown sets the fixed cooldown window.
func (f *Fusion) SetCooldown(d time.Duration) {
	if d < 0 {
		d = 0
	}
	f.cooldown = d
}

// SetNoiseGate sets the audio-level floor below which fusion
// short-circuits to a zero output.
func (f *Fusion) SetNoiseGate(floor float64) { f.noiseGate = clamp01(floor) }

// SetMinConfidence sets the minimum per-detector confidence for a
// verdict to count toward agreement.
func (f *Fusion) SetMinConfidence(c float64) { f.minConfidence = clamp01(c) }

// EffectiveCooldown returns the cooldown currently in force: the fixed
// value, or when a tempo hint is active and adaptive cooldown is on,
// beatPeriod/6 clamped to a safe range and never longer than the fixed
// value.
func (f *Fusion) EffectiveCooldown() time.Duration {
	if !f.adaptiveCooldown || f.tempoBPM < minTempoBPM {
		return f.cooldown
	}
	beatPeriod := time.Duration(60.0 / f.tempoBPM * float64(time.Second))
	c := beatPeriod / 6
	if c < adaptiveCooldownMin {
		c = adaptiveCooldownMin
	}
	if c > adaptiveCooldownMax {
		c = adaptiveCooldownMax
	}
	if c > f.cooldown {
		c = f.cooldown
	}
	return c
}

// Fuse combines one tick's detector results into a single decision.
// Below the noise gate it returns the zero output regardless of
// detector state, preventing electrical-noise false positives in
// silence. During cooldown the strength is suppressed to 0 for output
// purposes while confidence and agreement are still reported for
// diagnostics.
func (f *Fusion) Fuse(results []Result, timestamp time.Duration, audioLevel float64) Output {
	if audioLevel < f.noiseGate {
		return Output{Dominant: None}
	}

	n := min(len(results), NumDetectors)
	var weightSum, strengthSum, peakConf, peakStrength float64
	agreement := 0
	dominant := None
	for i := range n {
		cfg := f.configs[i]
		r := results[i]
		if !cfg.Enabled || !r.Detected || r.Confidence < f.minConfidence {
			continue
		}
		w := cfg.Weight
		if w <= 0 {
			continue
		}
		weightSum += w
		strengthSum += w * clamp01(r.Strength)
		agreement++
		if r.Confidence > peakConf {
			peakConf = r.Confidence
		}
		if r.Strength > peakStrength {
			peakStrength = r.Strength
			dominant = Type(i)
		}
	}

	if agreement == 0 || weightSum <= 0 {
		return Output{Dominant: None}
	}

	boost := agreementBoost[min(agreement, NumDetectors)]
	fused := clamp01(strengthSum / weightSum * boost)
	confidence := clamp01(peakConf * boost)

	if f.hasLastAccept && timestamp-f.lastAccepted < f.EffectiveCooldown() {
		return Output{
			TransientStrength: 0,
			Confidence:        confidence,
			Agreement:         agreement,
			Dominant:          dominant,
		}
	}

	if fused > 0 {
		f.lastAccepted = timestamp
		f.hasLastAccept = true
	}
	return Output{
		TransientStrength: fused,
		Confidence:        confidence,
		Agreement:         agreement,
		Dominant:          dominant,
	}
}

// ResetCooldown clears the accepted-detection history.
func (f *Fusion) ResetCooldown() {
	f.lastAccepted = 0
	f.hasLastAccept = false
}
