// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTempConfig writes YAML content to a temp file and returns its
// path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %v, want %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames per buffer = %d, want %d", cfg.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	}
	if cfg.Audio.InputDevice != DefaultDeviceID {
		t.Errorf("input device = %d, want %d", cfg.Audio.InputDevice, DefaultDeviceID)
	}
	if cfg.Detect.CooldownMs != 120 || cfg.Detect.NoiseGate != 0.01 {
		t.Errorf("detect defaults = %+v", cfg.Detect)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeTempConfig(t, `
debug: true
log_level: debug
audio:
  input_device: 2
  sample_rate: 16000
  frames_per_buffer: 512
detect:
  preset: live
  noise_gate: 0.02
  cooldown_ms: 150
  detectors:
    band_flux:
      weight: 0.3
      threshold: 0.08
      enabled: true
transport:
  websocket_enabled: true
  websocket_addr: ":9000"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.Debug || cfg.LogLevel != "debug" {
		t.Errorf("debug/log_level not loaded: %v %q", cfg.Debug, cfg.LogLevel)
	}
	if cfg.Audio.InputDevice != 2 || cfg.Audio.FramesPerBuffer != 512 {
		t.Errorf("audio section not loaded: %+v", cfg.Audio)
	}
	if cfg.Detect.Preset != "live" || cfg.Detect.CooldownMs != 150 {
		t.Errorf("detect section not loaded: %+v", cfg.Detect)
	}
	bf, ok := cfg.Detect.Detectors["band_flux"]
	if !ok || bf.Weight != 0.3 || bf.Threshold != 0.08 || !bf.Enabled {
		t.Errorf("detector override not loaded: %+v", bf)
	}
	if !cfg.Transport.WebsocketEnabled || cfg.Transport.WebsocketAddr != ":9000" {
		t.Errorf("transport section not loaded: %+v", cfg.Transport)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := writeTempConfig(t, "debug: true\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug not set")
	}
	if cfg.Audio.SampleRate != DefaultSampleRate || cfg.Detect.CooldownMs != 120 {
		t.Error("unset fields should keep their defaults")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "audio: [not a mapping")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"wrong sample rate", func(c *Config) { c.Audio.SampleRate = 44100 }, "sample_rate"},
		{"zero buffer", func(c *Config) { c.Audio.FramesPerBuffer = 0 }, "frames_per_buffer"},
		{"oversized buffer", func(c *Config) { c.Audio.FramesPerBuffer = MaxBufferFrames + 1 }, "frames_per_buffer"},
		{"negative cooldown", func(c *Config) { c.Detect.CooldownMs = -1 }, "cooldown_ms"},
		{"noise gate above one", func(c *Config) { c.Detect.NoiseGate = 1.5 }, "noise_gate"},
		{"unknown preset", func(c *Config) { c.Detect.Preset = "stadium" }, "preset"},
		{"unknown detector", func(c *Config) {
			c.Detect.Detectors = map[string]DetectorSettings{"tambourine": {}}
		}, "unknown detector"},
		{"unsupported recording format", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.Format = "flac"
		}, "wav only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EMBERLIGHT_DEBUG", "true")
	t.Setenv("EMBERLIGHT_LOG_LEVEL", "warn")
	t.Setenv("EMBERLIGHT_PRESET", "quiet")
	t.Setenv("EMBERLIGHT_WS_ADDR", ":7777")
	t.Setenv("EMBERLIGHT_UDP_TARGET", "10.0.0.2:9090")

	path := writeTempConfig(t, "log_level: info\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if !cfg.Debug {
		t.Error("EMBERLIGHT_DEBUG not applied")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, env override should win over the file", cfg.LogLevel)
	}
	if cfg.Detect.Preset != "quiet" {
		t.Errorf("preset = %q, want quiet", cfg.Detect.Preset)
	}
	if !cfg.Transport.WebsocketEnabled || cfg.Transport.WebsocketAddr != ":7777" {
		t.Error("EMBERLIGHT_WS_ADDR should set and enable the websocket transport")
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:9090" {
		t.Error("EMBERLIGHT_UDP_TARGET should set and enable the UDP transport")
	}
}

func TestEnvOverrideInvalidPresetFailsValidation(t *testing.T) {
	t.Setenv("EMBERLIGHT_PRESET", "nonsense")
	path := writeTempConfig(t, "debug: false\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("invalid preset from the environment should fail validation")
	}
}

func TestDefaultUDPSendInterval(t *testing.T) {
	cfg := Defaults()
	if cfg.Transport.UDPSendInterval != 16*time.Millisecond {
		t.Errorf("UDP send interval = %v, want 16ms", cfg.Transport.UDPSendInterval)
	}
}
