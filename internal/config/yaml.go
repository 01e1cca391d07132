// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Audio     AudioConfig     `yaml:"audio"`
	Detect    DetectConfig    `yaml:"detect"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default)
	SampleRate      float64 `yaml:"sample_rate"`       // must be 16000; the analyzers are tuned against it
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // callback batch size
	LowLatency      bool    `yaml:"low_latency"`
	GateThreshold   float64 `yaml:"gate_threshold"` // pre-analysis noise gate, 0..1
}

// DetectorSettings tunes one onset detector.
type DetectorSettings struct {
	Weight    float64 `yaml:"weight"`
	Threshold float64 `yaml:"threshold"`
	Enabled   bool    `yaml:"enabled"`
}

// DetectConfig holds ensemble tuning.
type DetectConfig struct {
	Preset           string                      `yaml:"preset,omitempty"` // quiet|loud|live, applied before overrides
	NoiseGate        float64                     `yaml:"noise_gate"`
	CooldownMs       int                         `yaml:"cooldown_ms"`
	AdaptiveCooldown bool                        `yaml:"adaptive_cooldown"`
	TempoBPM         float64                     `yaml:"tempo_bpm,omitempty"` // external tempo hint, 0 = none
	Detectors        map[string]DetectorSettings `yaml:"detectors,omitempty"`
}

// RecordingConfig holds input-stream recording settings.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"` // wav only
	BitDepth  int    `yaml:"bit_depth"`
}

// TransportConfig holds settings for publishing ensemble decisions.
type TransportConfig struct {
	WebsocketEnabled bool          `yaml:"websocket_enabled"`
	WebsocketAddr    string        `yaml:"websocket_addr"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			GateThreshold:   0.001,
		},
		Detect: DetectConfig{
			NoiseGate:        0.01,
			CooldownMs:       120,
			AdaptiveCooldown: false,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
			Format:    "wav",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WebsocketEnabled: false,
			WebsocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  16 * time.Millisecond, // ~60Hz
		},
	}
}

// LoadConfig loads configuration from a YAML file. If path is empty it
// searches default locations ("config.yaml"); if no file is found the
// built-in defaults are used. Environment overrides apply after the
// file, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration can drive the engine.
func (c *Config) Validate() error {
	if c.Audio.SampleRate != DefaultSampleRate {
		return fmt.Errorf("audio.sample_rate must be %d, got %g", DefaultSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be in (0, %d], got %d", MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if c.Detect.CooldownMs < 0 {
		return fmt.Errorf("detect.cooldown_ms must be >= 0, got %d", c.Detect.CooldownMs)
	}
	if c.Detect.NoiseGate < 0 || c.Detect.NoiseGate > 1 {
		return fmt.Errorf("detect.noise_gate must be in [0,1], got %g", c.Detect.NoiseGate)
	}
	if c.Detect.Preset != "" {
		if _, ok := presets[c.Detect.Preset]; !ok {
			return fmt.Errorf("detect.preset %q unknown", c.Detect.Preset)
		}
	}
	for name := range c.Detect.Detectors {
		if _, ok := detectorTypeByName(name); !ok {
			return fmt.Errorf("detect.detectors: unknown detector %q", name)
		}
	}
	if c.Recording.Enabled && c.Recording.Format != "wav" {
		return fmt.Errorf("recording.format %q unsupported (wav only)", c.Recording.Format)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("EMBERLIGHT_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("EMBERLIGHT_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("EMBERLIGHT_PRESET"); ok {
		c.Detect.Preset = val
	}
	if val, ok := os.LookupEnv("EMBERLIGHT_WS_ADDR"); ok {
		c.Transport.WebsocketAddr = val
		c.Transport.WebsocketEnabled = true
	}
	if val, ok := os.LookupEnv("EMBERLIGHT_UDP_TARGET"); ok {
		c.Transport.UDPTargetAddress = val
		c.Transport.UDPEnabled = true
	}
}
