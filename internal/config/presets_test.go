// SPDX-License-Identifier: MIT
package config

import (
	"testing"
	"time"

	"emberlight/internal/detect"
)

func TestApplyPreset(t *testing.T) {
	e := detect.NewEnsemble()
	if err := ApplyPreset(e, "quiet"); err != nil {
		t.Fatalf("ApplyPreset failed: %v", err)
	}

	cfg := e.Fusion().DetectorConfig(detect.Amplitude)
	if cfg.Weight != 0.15 || cfg.Threshold != 0.02 {
		t.Errorf("quiet preset amplitude config = %+v", cfg)
	}
	if cd := e.Fusion().EffectiveCooldown(); cd != 140*time.Millisecond {
		t.Errorf("cooldown = %v, want 140ms", cd)
	}
}

func TestApplyPresetUnknownLeavesEnsembleUntouched(t *testing.T) {
	e := detect.NewEnsemble()
	before := e.Fusion().DetectorConfig(detect.BandFlux)

	if err := ApplyPreset(e, "stadium"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if e.Fusion().DetectorConfig(detect.BandFlux) != before {
		t.Error("failed preset application mutated the ensemble")
	}
}

func TestPresetNamesAllResolve(t *testing.T) {
	for _, name := range PresetNames() {
		if _, ok := presets[name]; !ok {
			t.Errorf("PresetNames lists %q but no such preset exists", name)
		}
	}
	if len(PresetNames()) != len(presets) {
		t.Errorf("PresetNames lists %d presets, map has %d", len(PresetNames()), len(presets))
	}
}

func TestPresetsCoverAllDetectors(t *testing.T) {
	for name, p := range presets {
		if len(p.Detectors) != detect.NumDetectors {
			t.Errorf("preset %q tunes %d detectors, want %d", name, len(p.Detectors), detect.NumDetectors)
		}
		for dt, cfg := range p.Detectors {
			if !dt.Valid() {
				t.Errorf("preset %q tunes invalid detector %v", name, dt)
			}
			if cfg.Weight < 0 || cfg.Weight > 1 {
				t.Errorf("preset %q: %v weight %v out of [0,1]", name, dt, cfg.Weight)
			}
		}
	}
}

func TestDetectConfigApply(t *testing.T) {
	e := detect.NewEnsemble()
	dc := DetectConfig{
		Preset:     "live",
		CooldownMs: 200,
		TempoBPM:   128,
		Detectors: map[string]DetectorSettings{
			"bass_flux": {Weight: 0.5, Threshold: 0.1, Enabled: true},
			"amplitude": {Enabled: false},
		},
	}
	if err := dc.Apply(e); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// The override wins over the preset value.
	bf := e.Fusion().DetectorConfig(detect.BassFlux)
	if bf.Weight != 0.5 || bf.Threshold != 0.1 {
		t.Errorf("bass flux override not applied: %+v", bf)
	}
	if e.Fusion().Enabled(detect.Amplitude) {
		t.Error("amplitude should be disabled by the override")
	}
	// Fixed cooldown overrides the preset; the live preset's adaptive
	// flag is replaced by this config's (false here).
	if cd := e.Fusion().EffectiveCooldown(); cd != 200*time.Millisecond {
		t.Errorf("cooldown = %v, want 200ms", cd)
	}
}

func TestDetectConfigApplyUnknownDetector(t *testing.T) {
	e := detect.NewEnsemble()
	dc := DetectConfig{
		Detectors: map[string]DetectorSettings{"kazoo": {Weight: 0.5}},
	}
	if err := dc.Apply(e); err == nil {
		t.Fatal("expected error for unknown detector name")
	}
}

func TestDetectorNamesRoundTrip(t *testing.T) {
	if len(DetectorNames) != detect.NumDetectors {
		t.Fatalf("DetectorNames has %d entries, want %d", len(DetectorNames), detect.NumDetectors)
	}
	for _, name := range DetectorNames {
		dt, ok := detectorTypeByName(name)
		if !ok {
			t.Errorf("detector name %q does not resolve", name)
			continue
		}
		if dt.String() != name {
			t.Errorf("name %q resolves to %v (%q)", name, dt, dt.String())
		}
	}
}
