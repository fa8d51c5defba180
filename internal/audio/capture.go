// Package audio records mono input from a PortAudio device for offline
// feature extraction.
package audio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Capture wraps a PortAudio input stream and keeps a rolling mono window.
type Capture struct {
	stream     *portaudio.Stream
	sampleRate float64
	channels   int
	device     string

	mu      sync.Mutex
	history *ring
	scratch []float32
}

// Config controls how a Capture instance is created.
type Config struct {
	DeviceName string
	// WindowSize is the number of mono samples kept for analysis.
	WindowSize int
	Channels   int
}

const defaultWindowSize = 2048

var errNoInput = errors.New("no suitable audio input device found")

// NewCapture opens and starts a PortAudio input stream. Initialize must
// have been called.
func NewCapture(cfg Config) (*Capture, error) {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	device, err := findDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels < cfg.Channels {
		cfg.Channels = device.MaxInputChannels
	}

	c := &Capture{
		sampleRate: device.DefaultSampleRate,
		channels:   cfg.Channels,
		device:     device.Name,
		history:    newRing(cfg.WindowSize),
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}, c.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return c, nil
}

// Close stops and closes the underlying stream.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !isInvalidStreamState(err) {
		return err
	}
	return c.stream.Close()
}

func (c *Capture) SampleRate() float64 { return c.sampleRate }

func (c *Capture) DeviceName() string { return c.device }

// Window copies the most recent mono samples into dst and reports the
// stream position of the newest one.
func (c *Capture) Window(dst []float32) ([]float32, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dst = c.history.snapshot(dst)
	return dst, c.position()
}

// Elapsed is the amount of audio captured so far.
func (c *Capture) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *Capture) position() time.Duration {
	if c.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.history.written()) / c.sampleRate * float64(time.Second))
}

func (c *Capture) process(in []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scratch = downmix(c.scratch, in, c.channels)
	c.history.write(c.scratch)
}

func isInvalidStreamState(err error) bool {
	return strings.Contains(err.Error(), "PaErrorCode -9986")
}
