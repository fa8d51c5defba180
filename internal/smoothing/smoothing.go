// Package smoothing turns raw interpolated timeline samples into stable
// values and tracks beat boundaries crossed by the playhead.
package smoothing

import "github.com/guidoenr/chromafield/internal/timeline"

// Features is the smoothed view of the audio analysis consumed by the
// per-frame integrator.
type Features struct {
	Volume   float64        `json:"volume"`
	Centroid float64        `json:"centroid"`
	Bass     float64        `json:"bass"`
	MelBands timeline.Bands `json:"melbands"`
}

// Alphas are the per-feature EMA coefficients, each in (0, 1].
type Alphas struct {
	Volume   float64 `json:"volume"`
	Centroid float64 `json:"centroid"`
	Bass     float64 `json:"bass"`
	MelBands float64 `json:"melbands"`
}

// DefaultAlphas keeps loudness and centroid slow to ride out analysis jitter,
// bass fast enough to follow kicks, and mel bands in between.
func DefaultAlphas() Alphas {
	return Alphas{
		Volume:   0.12,
		Centroid: 0.12,
		Bass:     0.6,
		MelBands: 0.35,
	}
}

// Normalized replaces out-of-range coefficients with the defaults.
func (a Alphas) Normalized() Alphas {
	def := DefaultAlphas()
	fix := func(v, fallback float64) float64 {
		if !(v > 0 && v <= 1) {
			return fallback
		}
		return v
	}
	return Alphas{
		Volume:   fix(a.Volume, def.Volume),
		Centroid: fix(a.Centroid, def.Centroid),
		Bass:     fix(a.Bass, def.Bass),
		MelBands: fix(a.MelBands, def.MelBands),
	}
}

// Engine is a set of one-pole IIR filters, one per feature.
type Engine struct {
	alphas Alphas
	value  Features
}

// NewEngine builds an engine starting from all-zero features.
func NewEngine(alphas Alphas) *Engine {
	return &Engine{alphas: alphas.Normalized()}
}

// Update folds one raw sample per feature into the averages and returns the
// new smoothed value.
func (e *Engine) Update(raw Features) Features {
	v := e.value
	v.Volume = ema(v.Volume, raw.Volume, e.alphas.Volume)
	v.Centroid = ema(v.Centroid, raw.Centroid, e.alphas.Centroid)
	v.Bass = ema(v.Bass, raw.Bass, e.alphas.Bass)
	for i := range v.MelBands {
		v.MelBands[i] = ema(v.MelBands[i], raw.MelBands[i], e.alphas.MelBands)
	}
	e.value = v
	return v
}

// Value returns the current smoothed features.
func (e *Engine) Value() Features { return e.value }

// Alphas returns the coefficients in use.
func (e *Engine) Alphas() Alphas { return e.alphas }

// Reset zeroes every average.
func (e *Engine) Reset() {
	e.value = Features{}
}

func ema(smoothed, raw, alpha float64) float64 {
	return smoothed + (raw-smoothed)*alpha
}
