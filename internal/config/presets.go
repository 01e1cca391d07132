// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"

	"emberlight/internal/detect"
)

// Preset is a named tuning profile mapped onto the ensemble's setter
// surface. Presets only touch the setters; the core persists nothing.
type Preset struct {
	NoiseGate        float64
	Cooldown         time.Duration
	AdaptiveCooldown bool
	Detectors        map[detect.Type]detect.Config
}

var presets = map[string]Preset{
	// quiet: low-level sources (acoustic sets, background listening).
	// Gate and thresholds drop so soft hits still register.
	"quiet": {
		NoiseGate: 0.004,
		Cooldown:  140 * time.Millisecond,
		Detectors: map[detect.Type]detect.Config{
			detect.Amplitude:       {Weight: 0.15, Threshold: 0.02, Enabled: true},
			detect.SpectralFlux:    {Weight: 0.20, Threshold: 0.005, Enabled: true},
			detect.HighFrequency:   {Weight: 0.10, Threshold: 0.01, Enabled: true},
			detect.BassFlux:        {Weight: 0.15, Threshold: 0.02, Enabled: true},
			detect.ComplexDomain:   {Weight: 0.15, Threshold: 0.02, Enabled: true},
			detect.SpectralNovelty: {Weight: 0.10, Threshold: 0.03, Enabled: true},
			detect.BandFlux:        {Weight: 0.15, Threshold: 0.03, Enabled: true},
		},
	},
	// loud: club/party levels. Higher floors keep the always-hot
	// spectrum from firing constantly.
	"loud": {
		NoiseGate: 0.03,
		Cooldown:  110 * time.Millisecond,
		Detectors: map[detect.Type]detect.Config{
			detect.Amplitude:       {Weight: 0.20, Threshold: 0.10, Enabled: true},
			detect.SpectralFlux:    {Weight: 0.20, Threshold: 0.02, Enabled: true},
			detect.HighFrequency:   {Weight: 0.10, Threshold: 0.05, Enabled: true},
			detect.BassFlux:        {Weight: 0.20, Threshold: 0.08, Enabled: true},
			detect.ComplexDomain:   {Weight: 0.05, Threshold: 0.05, Enabled: true},
			detect.SpectralNovelty: {Weight: 0.05, Threshold: 0.08, Enabled: true},
			detect.BandFlux:        {Weight: 0.20, Threshold: 0.08, Enabled: true},
		},
	},
	// live: live instruments, adaptive cooldown on so fills don't
	// starve the visuals between beats.
	"live": {
		NoiseGate:        0.01,
		Cooldown:         120 * time.Millisecond,
		AdaptiveCooldown: true,
		Detectors: map[detect.Type]detect.Config{
			detect.Amplitude:       {Weight: 0.20, Threshold: 0.05, Enabled: true},
			detect.SpectralFlux:    {Weight: 0.15, Threshold: 0.01, Enabled: true},
			detect.HighFrequency:   {Weight: 0.10, Threshold: 0.02, Enabled: true},
			detect.BassFlux:        {Weight: 0.15, Threshold: 0.04, Enabled: true},
			detect.ComplexDomain:   {Weight: 0.15, Threshold: 0.03, Enabled: true},
			detect.SpectralNovelty: {Weight: 0.10, Threshold: 0.05, Enabled: true},
			detect.BandFlux:        {Weight: 0.15, Threshold: 0.05, Enabled: true},
		},
	},
}

// PresetNames lists the available preset profiles.
func PresetNames() []string {
	return []string{"quiet", "loud", "live"}
}

// ApplyPreset maps a named profile onto the ensemble's configuration
// surface. Unknown names are an error and leave the ensemble untouched.
func ApplyPreset(e *detect.Ensemble, name string) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	fusion := e.Fusion()
	fusion.SetNoiseGate(p.NoiseGate)
	fusion.SetCooldown(p.Cooldown)
	fusion.SetAdaptiveCooldown(p.AdaptiveCooldown)
	for t, cfg := range p.Detectors {
		fusion.ConfigureDetector(t, cfg)
	}
	return nil
}

// Apply pushes a DetectConfig (preset plus per-detector overrides) onto
// the ensemble.
func (dc *DetectConfig) Apply(e *detect.Ensemble) error {
	if dc.Preset != "" {
		if err := ApplyPreset(e, dc.Preset); err != nil {
			return err
		}
	}
	fusion := e.Fusion()
	if dc.NoiseGate > 0 {
		fusion.SetNoiseGate(dc.NoiseGate)
	}
	if dc.CooldownMs > 0 {
		fusion.SetCooldown(time.Duration(dc.CooldownMs) * time.Millisecond)
	}
	fusion.SetAdaptiveCooldown(dc.AdaptiveCooldown)
	if dc.TempoBPM > 0 {
		fusion.SetTempoHint(dc.TempoBPM)
	}
	for name, settings := range dc.Detectors {
		t, ok := detectorTypeByName(name)
		if !ok {
			return fmt.Errorf("unknown detector %q", name)
		}
		fusion.ConfigureDetector(t, detect.Config{
			Weight:    settings.Weight,
			Threshold: settings.Threshold,
			Enabled:   settings.Enabled,
		})
	}
	return nil
}

func detectorTypeByName(name string) (detect.Type, bool) {
	for t := range detect.NumDetectors {
		if detect.Type(t).String() == name {
			return detect.Type(t), true
		}
	}
	return detect.None, false
}
