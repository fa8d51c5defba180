package audio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Device describes a PortAudio input device.
type Device struct {
	Name            string
	HostAPI         string
	MaxInput        int
	DefaultSampleHz float64
	IsDefaultInput  bool
}

// ListDevices returns input-capable devices sorted by host and name.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}
	defIndex := defaultInputIndex()

	var devices []Device
	for _, host := range hosts {
		for _, d := range host.Devices {
			if d.MaxInputChannels <= 0 {
				continue
			}
			devices = append(devices, Device{
				Name:            d.Name,
				HostAPI:         host.Name,
				MaxInput:        d.MaxInputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				IsDefaultInput:  d.Index == defIndex,
			})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI == devices[j].HostAPI {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].HostAPI < devices[j].HostAPI
	})
	return devices, nil
}

func defaultInputIndex() int {
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		return def.Index
	}
	return -1
}

func findDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	if name != "" {
		want := strings.ToLower(name)
		for _, d := range devices {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), want) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("audio device %q not found", name)
	}

	defIndex := defaultInputIndex()
	var (
		best      *portaudio.DeviceInfo
		bestScore = -1
	)
	for _, d := range devices {
		if d == nil || d.MaxInputChannels <= 0 {
			continue
		}
		score := scoreDevice(d.Name, d.MaxInputChannels, d.Index == defIndex)
		if score > bestScore || (score == bestScore && strings.ToLower(d.Name) < strings.ToLower(best.Name)) {
			best, bestScore = d, score
		}
	}
	if best == nil {
		return nil, errNoInput
	}
	return best, nil
}

var loopbackKeywords = []string{"monitor", "loopback", "stereo mix", "what u hear"}

// scoreDevice ranks inputs for automatic selection. Loopback devices win
// over microphones since featurize usually records what is playing.
func scoreDevice(name string, inputs int, isDefault bool) int {
	if inputs <= 0 {
		return -1
	}
	score := min(inputs, 8)
	if isDefault {
		score += 40
	}
	lower := strings.ToLower(name)
	for _, kw := range loopbackKeywords {
		if strings.Contains(lower, kw) {
			score += 50
			break
		}
	}
	if strings.Contains(lower, "default") {
		score += 10
	}
	return score
}
