// Command featurize records from an audio input and writes a feature
// timeline bundle for the visualizer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guidoenr/chromafield/internal/analyzer"
	"github.com/guidoenr/chromafield/internal/audio"
)

func main() {
	var (
		deviceName = flag.String("audio-device", "", "PortAudio input device (substring match)")
		duration   = flag.Duration("duration", 30*time.Second, "How long to record")
		rate       = flag.Float64("rate", 20, "Analysis windows per second")
		window     = flag.Int("window", 2048, "Analysis window in samples")
		noiseFloor = flag.Float64("noise-floor", 0.02, "Gate features below this level")
		output     = flag.String("o", "timeline.json", "Output bundle path")
		listDevs   = flag.Bool("list-audio-devices", false, "List audio input devices and exit")
		debug      = flag.Bool("debug", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[featurize] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}
	if *rate <= 0 || *duration <= 0 {
		logger.Fatalf("rate and duration must be positive")
	}

	if err := audio.Initialize(); err != nil {
		logger.Fatalf("failed to initialize PortAudio: %v", err)
	}
	defer audio.Terminate()

	if *listDevs {
		devices, err := audio.ListDevices()
		if err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		fmt.Printf("\n=== Audio Input Devices ===\n\n")
		for _, dev := range devices {
			marker := ""
			if dev.IsDefaultInput {
				marker = " (default)"
			}
			fmt.Printf("- %s [%s]%s\n    inputs:%d sample:%.0f Hz\n", dev.Name, dev.HostAPI, marker, dev.MaxInput, dev.DefaultSampleHz)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, stop := context.WithTimeout(ctx, *duration)
	defer stop()

	capture, err := audio.NewCapture(audio.Config{DeviceName: *deviceName, WindowSize: *window, Channels: 2})
	if err != nil {
		logger.Fatalf("audio capture: %v", err)
	}
	defer capture.Close()
	logger.Printf("recording %s from %q @ %.0f Hz", *duration, capture.DeviceName(), capture.SampleRate())

	bundle := record(ctx, capture, analyzer.New(analyzer.Config{SampleRate: capture.SampleRate()}), *rate, *noiseFloor)
	logger.Printf("captured %d windows, %d beats, tempo %.1f", len(bundle.Loudness), len(bundle.Beats), bundle.Tempo)

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		logger.Fatalf("encode bundle: %v", err)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		logger.Fatalf("write %s: %v", *output, err)
	}
	logger.Printf("wrote %s", *output)
}
