// Package palette defines the shading parameter set consumed by renderers
// and the cross-fade between two of them.
package palette

import "math"

// RGB is a linear colour with channels in 0..1.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Palette is the full set of numeric shading parameters for a track.
type Palette struct {
	Colors     [3]RGB  `json:"colors"`
	Speed      float64 `json:"speed"`
	Turbulence float64 `json:"turbulence"`
	PulseRate  float64 `json:"pulseRate"`
	OrbCount   int     `json:"orbCount"`
	Brightness float64 `json:"brightness"`
}

// Default is the neutral palette shown before any track resolves one.
func Default() Palette {
	return Palette{
		Colors: [3]RGB{
			{R: 0.42, G: 0.36, B: 0.78},
			{R: 0.08, G: 0.06, B: 0.22},
			{R: 0.85, G: 0.55, B: 0.95},
		},
		Speed:      1.0,
		Turbulence: 0.35,
		PulseRate:  1.0,
		OrbCount:   3,
		Brightness: 1.0,
	}
}

// Lerp interpolates every numeric field from a to b. t is clamped to 0..1;
// t == 1 returns b unchanged and t == 0 returns a unchanged.
func Lerp(a, b Palette, t float64) Palette {
	if !(t > 0) {
		return a
	}
	if t >= 1 {
		return b
	}
	out := Palette{
		Speed:      lerp(a.Speed, b.Speed, t),
		Turbulence: lerp(a.Turbulence, b.Turbulence, t),
		PulseRate:  lerp(a.PulseRate, b.PulseRate, t),
		OrbCount:   int(math.Round(lerp(float64(a.OrbCount), float64(b.OrbCount), t))),
		Brightness: lerp(a.Brightness, b.Brightness, t),
	}
	for i := range out.Colors {
		out.Colors[i] = LerpRGB(a.Colors[i], b.Colors[i], t)
	}
	return out
}

// LerpRGB interpolates each channel.
func LerpRGB(a, b RGB, t float64) RGB {
	return RGB{
		R: lerp(a.R, b.R, t),
		G: lerp(a.G, b.G, t),
		B: lerp(a.B, b.B, t),
	}
}

// Blend computes the weighted sum of palettes. Weights are used as given, so
// callers normalise them. OrbCount is rounded after summing.
func Blend(palettes []Palette, weights []float64) Palette {
	var (
		out  Palette
		orbs float64
	)
	for i, p := range palettes {
		if i >= len(weights) {
			break
		}
		w := weights[i]
		for c := range out.Colors {
			out.Colors[c].R += p.Colors[c].R * w
			out.Colors[c].G += p.Colors[c].G * w
			out.Colors[c].B += p.Colors[c].B * w
		}
		out.Speed += p.Speed * w
		out.Turbulence += p.Turbulence * w
		out.PulseRate += p.PulseRate * w
		out.Brightness += p.Brightness * w
		orbs += float64(p.OrbCount) * w
	}
	out.OrbCount = int(math.Round(orbs))
	return out
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
