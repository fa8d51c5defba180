package app

import (
	"math"
	"math/rand"

	"github.com/guidoenr/chromafield/internal/engine"
	"github.com/guidoenr/chromafield/internal/timeline"
)

const syntheticRate = 10.0

// syntheticTrack builds a timeline with beats at tempo and slowly drifting
// features, so the visualizer runs without an analysis pipeline.
func syntheticTrack(seed int64, duration, tempo float64) engine.Track {
	rng := rand.New(rand.NewSource(seed))
	if tempo <= 0 {
		tempo = timeline.DefaultTempo
	}
	interval := 60 / tempo

	var b timeline.Bundle
	b.Tempo = tempo
	for t := interval; t < duration; t += interval {
		b.Beats = append(b.Beats, t)
	}

	steps := int(duration * syntheticRate)
	for i := 0; i <= steps; i++ {
		t := float64(i) / syntheticRate
		sinceBeat := math.Mod(t, interval)
		jitter := func(scale float64) float64 { return (rng.Float64() - 0.5) * scale }

		loud := 0.45 + 0.3*math.Sin(2*math.Pi*t/16) + jitter(0.08)
		bass := 0.15 + 0.75*math.Exp(-sinceBeat*6) + jitter(0.05)
		centroid := 0.5 + 0.3*math.Sin(2*math.Pi*t/23+1) + jitter(0.04)

		var bands timeline.Bands
		for k := range bands {
			bands[k] = clamp01(0.35 + 0.3*math.Sin(t*(0.5+float64(k)*0.3)+float64(k)) + jitter(0.1))
		}
		bands[0] = clamp01(bands[0]*0.5 + bass*0.5)

		b.Loudness = append(b.Loudness, timeline.Sample{T: t, V: clamp01(loud)})
		b.Bass = append(b.Bass, timeline.Sample{T: t, V: clamp01(bass)})
		b.Centroid = append(b.Centroid, timeline.Sample{T: t, V: clamp01(centroid)})
		b.MelBands = append(b.MelBands, timeline.BandSample{T: t, V: bands})
	}

	return engine.Track{
		Title:    "Synthetic",
		Artist:   "chromafield",
		Timeline: b,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
