package render

import (
	"math"
	"sort"
)

type patternFunc func(x, y float64, fp frameParams) float64

const defaultPattern = "plasma"

var patternRegistry = map[string]patternFunc{
	"plasma":  patternPlasma,
	"waves":   patternWaves,
	"ripples": patternRipples,
	"nebula":  patternNebula,
}

// PatternNames returns the available pattern identifiers.
func PatternNames() []string {
	names := make([]string, 0, len(patternRegistry))
	for name := range patternRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func patternPlasma(x, y float64, fp frameParams) float64 {
	t := fp.phase * fp.speed
	v1 := math.Sin((x*3.4 + t*1.2) * 0.9)
	v2 := math.Sin((y*4.1 - t*0.7) * 1.1)
	v3 := math.Sin((x+y)*2.3 + t*1.7)
	return (v1 + v2 + v3) / 3.0
}

func patternWaves(x, y float64, fp frameParams) float64 {
	t := fp.phase * fp.speed
	freq := 5.0 + fp.bassFlow*4
	return math.Sin((x+t*0.8)*freq) * math.Cos((y-t*0.5)*freq*1.1)
}

func patternRipples(x, y float64, fp frameParams) float64 {
	t := fp.phase * fp.speed
	r := math.Hypot(x, y)
	theta := math.Atan2(y, x)
	return math.Sin(r*(10+fp.pulse*6) - t*2.2 + math.Sin(theta*3+t)*0.5)
}

func patternNebula(x, y float64, fp frameParams) float64 {
	t := fp.phase * fp.speed
	base := patternPlasma(x*0.8, y*0.8, fp)
	swirl := math.Sin((x-y)*1.5 + t*0.9)
	noise := fractalNoise(x*1.2+t*0.1, y*1.2-t*0.15)
	return base*0.5 + swirl*0.2 + noise*0.3
}

// fractalNoise sums four octaves of value noise into -1..1.
func fractalNoise(x, y float64) float64 {
	amp, freq := 0.5, 1.0
	total, sumAmp := 0.0, 0.0
	for i := 0; i < 4; i++ {
		total += valueNoise2(x*freq, y*freq) * amp
		sumAmp += amp
		amp *= 0.5
		freq *= 2.0
	}
	return (total/sumAmp)*2.0 - 1.0
}

func valueNoise2(x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	n00 := hash2(x0, y0)
	n10 := hash2(x0+1, y0)
	n01 := hash2(x0, y0+1)
	n11 := hash2(x0+1, y0+1)

	return lerp(lerp(n00, n10, sx), lerp(n01, n11, sx), sy)
}

func hash2(x, y float64) float64 {
	v := math.Sin(x*127.1+y*311.7) * 43758.5453123
	return v - math.Floor(v)
}

func smoothstep(v float64) float64 { return v * v * (3 - 2*v) }

func lerp(a, b, t float64) float64 { return a*(1-t) + b*t }
