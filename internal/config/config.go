// SPDX-License-Identifier: MIT
// Package config loads and validates the runtime configuration: audio
// capture settings, detector tuning, transports and recording, from a
// YAML file with environment overrides.
package config

// Core constants that bound the audio engine configuration. The
// detection core is tuned against a fixed 16 kHz mono feed; these are
// not negotiable at runtime.
const (
	DefaultSampleRate      = 16000
	DefaultChannels        = 1
	DefaultFramesPerBuffer = 256 // one spectral hop per callback
	DefaultDeviceID        = MinDeviceID
	DefaultLowLatency      = false

	MinDeviceID     = -1 // system default device
	MaxBufferFrames = 8192
)

// Detector config key names accepted in the YAML detectors map.
var DetectorNames = []string{
	"amplitude",
	"spectral_flux",
	"high_frequency",
	"bass_flux",
	"complex_domain",
	"spectral_novelty",
	"band_flux",
}
