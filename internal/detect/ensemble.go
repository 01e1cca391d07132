// SPDX-License-Identifier: MIT
package detect

import (
	"math"
	"time"

	"emberlight/internal/dsp"
)

// Envelope follower smoothing for the time-domain level: fast attack,
// slower release.
const (
	levelAttack  = 0.7
	levelRelease = 0.15
)

// Ensemble is the orchestrator: it owns one spectral engine, one bass
// analyzer, the seven detectors, and the fusion stage, and drives the
// per-tick update order. One Output is produced per ProcessSamples
// call.
//
// Single-threaded by design: the caller must not invoke ProcessSamples
// concurrently with itself or with configuration setters.
type Ensemble struct {
	spectral *dsp.SpectralEngine
	bass     *dsp.BassAnalyzer

	detectors [NumDetectors]Detector
	results   [NumDetectors]Result
	fusion    *Fusion

	frame Frame

	elapsedSamples int64
	level          float64
	lastOutput     Output
}

// NewEnsemble creates a fully wired ensemble with default detector
// configs.
func NewEnsemble() *Ensemble {
	e := &Ensemble{
		spectral:   dsp.NewSpectralEngine(),
		bass:       dsp.NewBassAnalyzer(),
		fusion:     NewFusion(),
		lastOutput: Output{Dominant: None},
	}
	cfgs := defaultConfigs()
	e.detectors = [NumDetectors]Detector{
		Amplitude:       NewAmplitudeDetector(cfgs[Amplitude]),
		SpectralFlux:    NewSpectralFluxDetector(cfgs[SpectralFlux]),
		HighFrequency:   NewHighFrequencyDetector(cfgs[HighFrequency]),
		BassFlux:        NewBassFluxDetector(cfgs[BassFlux]),
		ComplexDomain:   NewComplexDomainDetector(cfgs[ComplexDomain]),
		SpectralNovelty: NewNoveltyDetector(cfgs[SpectralNovelty]),
		BandFlux:        NewBandFluxDetector(cfgs[BandFlux]),
	}
	// Config changes made through the fusion surface propagate into the
	// owning detector.
	e.fusion.onConfigChange(func(t Type, cfg Config) {
		e.detectors[t].Configure(cfg)
	})
	return e
}

// ProcessSamples is the per-tick entry point: feed new samples to both
// analyzers, process any ready frame, run the enabled detectors over
// one shared snapshot, clear the ready flags, and fuse. Disabled
// detectors are skipped entirely, not merely ignored.
//
// The sample batch must not be mutated concurrently with this call.
func (e *Ensemble) ProcessSamples(samples []int16) Output {
	if len(samples) == 0 {
		return e.lastOutput
	}

	rms := batchRMS(samples)
	if rms > e.level {
		e.level += (rms - e.level) * levelAttack
	} else {
		e.level += (rms - e.level) * levelRelease
	}

	e.elapsedSamples += int64(len(samples))
	dt := float64(len(samples)) / dsp.SampleRate
	timestamp := e.Elapsed()

	spectralReady := e.spectral.AddSamples(samples)
	bassReady := e.bass.AddSamples(samples)
	if spectralReady {
		e.spectral.Process()
	}
	if bassReady {
		e.bass.Process()
	}

	e.buildFrame(timestamp, rms, spectralReady, bassReady)

	for i := range e.detectors {
		if !e.fusion.Enabled(Type(i)) {
			e.results[i] = Result{}
			continue
		}
		e.results[i] = e.detectors[i].Detect(&e.frame, dt)
	}

	// Detectors have consumed the data; mark both frames spent so the
	// next tick sees at most one unprocessed frame boundary.
	e.spectral.ResetFrameReady()
	e.bass.ResetFrameReady()

	e.lastOutput = e.fusion.Fuse(e.results[:], timestamp, rms)
	return e.lastOutput
}

// buildFrame assembles the read-only snapshot handed to every detector.
// The slices are borrowed from the live analyzer frames and are valid
// for this tick only.
func (e *Ensemble) buildFrame(ts time.Duration, rms float64, spectralReady, bassReady bool) {
	e.frame = Frame{
		Level:     clamp01(e.level),
		RawLevel:  clamp01(rms),
		Timestamp: ts,

		Magnitude:     e.spectral.Magnitude(),
		Phase:         e.spectral.Phase(),
		PrevMagnitude: e.spectral.PrevMagnitude(),
		PrevPhase:     e.spectral.PrevPhase(),
		Mel:           e.spectral.Mel(),
		PrevMel:       e.spectral.PrevMel(),
		TotalEnergy:   e.spectral.TotalEnergy(),
		Centroid:      e.spectral.Centroid(),
		HasPrevFrame:  e.spectral.HasPreviousFrame(),
		SpectralValid: spectralReady,

		BassBins:     e.bass.Magnitude(),
		PrevBassBins: e.bass.PrevMagnitude(),
		HasPrevBass:  e.bass.HasPreviousFrame(),
		BassValid:    bassReady,
	}
}

// LastOutput returns the most recent ensemble decision.
func (e *Ensemble) LastOutput() Output { return e.lastOutput }

// Elapsed returns the stream time derived from the sample count.
func (e *Ensemble) Elapsed() time.Duration {
	return time.Duration(float64(e.elapsedSamples) / dsp.SampleRate * float64(time.Second))
}

// Fusion exposes the fusion stage's configuration surface.
func (e *Ensemble) Fusion() *Fusion { return e.fusion }

// SetDetectorWeight updates one detector's fusion weight.
func (e *Ensemble) SetDetectorWeight(t Type, w float64) bool {
	return e.fusion.SetWeight(t, w)
}

// SetDetectorEnabled enables or disables one detector.
func (e *Ensemble) SetDetectorEnabled(t Type, enabled bool) bool {
	return e.fusion.SetEnabled(t, enabled)
}

// SetDetectorThreshold updates one detector's threshold.
func (e *Ensemble) SetDetectorThreshold(t Type, threshold float64) bool {
	return e.fusion.SetThreshold(t, threshold)
}

// SetTempoHint supplies an external BPM estimate for adaptive cooldown.
func (e *Ensemble) SetTempoHint(bpm float64) { e.fusion.SetTempoHint(bpm) }

// ResetToDefaults restores all detector and fusion configuration.
func (e *Ensemble) ResetToDefaults() { e.fusion.ResetToDefaults() }

// Reset clears all analyzer and detector state, typically after a
// silence timeout or mode switch. Configuration is preserved.
func (e *Ensemble) Reset() {
	e.spectral.Reset()
	e.bass.Reset()
	for _, d := range e.detectors {
		d.Reset()
	}
	e.fusion.ResetCooldown()
	e.level = 0
	e.lastOutput = Output{Dominant: None}
}

// batchRMS computes the RMS level of one sample batch, normalized to
// [0,1].
func batchRMS(samples []int16) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
