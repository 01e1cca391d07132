// SPDX-License-Identifier: MIT
/*
Package audio implements the real-time capture engine around the
detection core:

  - PortAudio int16 mono capture at 16 kHz
  - branchless noise gate pre-check before publishing
  - per-callback feed into the onset ensemble
  - WAV recording with atomic state management

The ensemble itself is single-threaded by design; it runs entirely on
the PortAudio callback thread, and its latest output is mirrored behind
a mutex for readers on other goroutines (TUI, transports).
*/
package audio

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"emberlight/internal/config"
	"emberlight/internal/detect"
	"emberlight/internal/log"
	"emberlight/internal/transport"
)

// Engine owns the input stream, the detection ensemble and the
// outbound transport.
type Engine struct {
	config   *config.Config
	ensemble *detect.Ensemble

	inputBuffer  []int16
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	transport transport.Transport

	// Noise gate for outbound publishing.
	gateEnabled   bool
	gateThreshold int16

	outMu      sync.Mutex
	lastOutput detect.Output

	// Recording state.
	isRecording int32 // atomic
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer
}

// NewEngine creates an engine wired to the given ensemble and
// transport. The transport may be nil; outputs are then only available
// through LastOutput.
func NewEngine(cfg *config.Config, ensemble *detect.Ensemble, t transport.Transport) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:      cfg,
		ensemble:    ensemble,
		inputBuffer: make([]int16, cfg.Audio.FramesPerBuffer),
		inputDevice: inputDevice,
		transport:   t,
		gateEnabled: true,
	}
	e.SetGateThreshold(cfg.Audio.GateThreshold)

	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return e, nil
}

// StartInputStream opens and starts the PortAudio input stream. The
// first callback marks the start of the hot path.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: config.DefaultChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}
	log.Infof("audio: input stream started (%s, %.0f Hz, %d frames/buffer)",
		e.inputDevice.Name, e.config.Audio.SampleRate, e.config.Audio.FramesPerBuffer)
	return nil
}

// StopInputStream stops and closes the input stream.
func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}
		if err := e.inputStream.Close(); err != nil {
			return err
		}
		e.inputStream = nil
	}
	return nil
}

// processInputStream is the audio callback. Hot path: pre-allocated
// buffers only, no locks apart from the output mirror.
func (e *Engine) processInputStream(in []int16) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	batch := e.inputBuffer[:n]

	// The ensemble always sees every batch so ring buffers and
	// timestamps stay continuous; its own noise gate handles silence.
	out := e.ensemble.ProcessSamples(batch)

	e.outMu.Lock()
	e.lastOutput = out
	e.outMu.Unlock()

	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		for i, sample := range batch {
			e.sampleBuf.Data[i] = int(sample)
		}
		e.sampleBuf.Data = e.sampleBuf.Data[:n]
		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			log.Errorf("audio: error writing to WAV file: %v", err)
		}
	}

	// Publishing is gated: below the amplitude floor there is nothing
	// worth broadcasting.
	if e.transport != nil && e.gatePassed(batch) {
		_ = e.transport.Send(out)
	}
}

// gatePassed runs the branchless max-amplitude check against the gate
// threshold.
func (e *Engine) gatePassed(buffer []int16) bool {
	if !e.gateEnabled {
		return true
	}
	var maxAmplitude int16
	for i := range buffer {
		sample := buffer[i]
		mask := sample >> 15
		amplitude := (sample ^ mask) - mask
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 15)) ^ diff
	}
	return maxAmplitude > e.gateThreshold
}

// LastOutput returns the most recent ensemble decision, safe to call
// from any goroutine.
func (e *Engine) LastOutput() detect.Output {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	return e.lastOutput
}

// Ensemble exposes the detection ensemble for configuration. Callers
// must not invoke setters concurrently with a running stream.
func (e *Engine) Ensemble() *detect.Ensemble { return e.ensemble }

// Close stops the stream and releases resources.
func (e *Engine) Close() error {
	if err := e.StopInputStream(); err != nil {
		return err
	}
	if e.transport != nil {
		return e.transport.Close()
	}
	return nil
}
