package analyzer

import "github.com/guidoenr/chromafield/internal/timeline"

// Features describes one analysis window.
type Features struct {
	Loudness      float64
	Centroid      float64
	Bass          float64
	Bands         timeline.Bands
	Onset         bool
	OnsetStrength float64
}

// GateFeatures applies a simple noise floor so weak signals are ignored.
func GateFeatures(f Features, floor float64) Features {
	if floor <= 0 {
		return f
	}
	gate := func(v float64) float64 {
		if v <= floor {
			return 0
		}
		return clamp((v-floor)/(1.0-floor), 0, 1)
	}

	f.Loudness = gate(f.Loudness)
	f.Bass = gate(f.Bass)
	for i := range f.Bands {
		f.Bands[i] = gate(f.Bands[i])
	}
	if f.Loudness == 0 && f.Bass == 0 {
		f.Onset = false
		f.OnsetStrength = 0
		f.Centroid = 0
	}
	return f
}
