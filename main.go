// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"emberlight/cmd"
	"emberlight/internal/audio"
	"emberlight/internal/config"
	"emberlight/internal/detect"
	"emberlight/internal/log"
	"emberlight/internal/transport"
	"emberlight/internal/transport/udp"
	"emberlight/internal/tui"
)

// main drives three phases:
//
//  1. Startup (cold path): runtime setup, PortAudio init, CLI parsing,
//     one-off commands.
//  2. Concurrent (hot path): audio callback feeding the detection
//     ensemble, transports publishing decisions, optional TUI.
//  3. Shutdown (cold path): signal handling, recording finalization,
//     resource cleanup.
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// One thread for the audio callback, one for UI and I/O.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		log.Fatalf("%v", err)
	}
	defer audio.Terminate()

	opts, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if opts.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}
	if opts.Config == nil {
		return // help/version paths
	}
	cfg := opts.Config

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}
	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	ensemble := detect.NewEnsemble()
	if err := cfg.Detect.Apply(ensemble); err != nil {
		log.Fatalf("%v", err)
	}

	sink := buildTransport(cfg)
	engine, err := audio.NewEngine(cfg, ensemble, sink)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			log.Fatalf("%v", err)
		}
		publisher, err = udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, engine.LastOutput)
		if err != nil {
			log.Fatalf("%v", err)
		}
		publisher.Start()
	}

	if err := engine.StartInputStream(); err != nil {
		log.Fatalf("%v", err)
	}

	recording := opts.Record || cfg.Recording.Enabled
	outputFile := opts.Output
	if recording {
		if outputFile == "" {
			outputFile = "capture-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
		}
		if err := engine.StartRecording(outputFile); err != nil {
			log.Fatalf("%v", err)
		}
	}

	if opts.Monitor {
		program := tea.NewProgram(tui.NewMonitor(engine.LastOutput))
		if _, err := program.Run(); err != nil {
			log.Errorf("monitor: %v", err)
		}
	} else {
		fmt.Println("emberlight running; Ctrl-C to stop")
		<-done
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if recording {
		if err := engine.StopRecording(); err != nil {
			log.Errorf("error stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", outputFile)
		}
	}

	if publisher != nil {
		if err := publisher.Stop(); err != nil {
			log.Errorf("error stopping UDP publisher: %v", err)
		}
	}

	if err := engine.Close(); err != nil {
		log.Errorf("error closing audio engine: %v", err)
	}
}

// buildTransport selects the outbound sink from configuration. The
// websocket transport wins when enabled; otherwise decisions are only
// logged at debug level.
func buildTransport(cfg *config.Config) transport.Transport {
	if cfg.Transport.WebsocketEnabled {
		return transport.NewWebSocketTransport(cfg.Transport.WebsocketAddr)
	}
	return transport.NewLoggingTransport()
}
