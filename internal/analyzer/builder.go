package analyzer

import (
	"math"
	"sort"

	"github.com/guidoenr/chromafield/internal/timeline"
)

const (
	minTempo = 70.0
	maxTempo = 180.0
)

// Builder accumulates analysed windows into a timeline bundle.
type Builder struct {
	bundle timeline.Bundle
	last   float64
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{last: math.Inf(-1)}
}

// Add appends the features of the window ending at t. Windows must arrive
// in time order; a window older than the last one is ignored.
func (b *Builder) Add(t float64, f Features) {
	if t < b.last {
		return
	}
	b.last = t
	b.bundle.Loudness = append(b.bundle.Loudness, timeline.Sample{T: t, V: f.Loudness})
	b.bundle.Centroid = append(b.bundle.Centroid, timeline.Sample{T: t, V: f.Centroid})
	b.bundle.Bass = append(b.bundle.Bass, timeline.Sample{T: t, V: f.Bass})
	b.bundle.MelBands = append(b.bundle.MelBands, timeline.BandSample{T: t, V: f.Bands})
	if f.Onset {
		b.bundle.Beats = append(b.bundle.Beats, t)
	}
}

// Len returns the number of windows added.
func (b *Builder) Len() int { return len(b.bundle.Loudness) }

// Bundle returns the accumulated bundle with an estimated tempo.
func (b *Builder) Bundle() timeline.Bundle {
	out := b.bundle
	out.Tempo = EstimateTempo(out.Beats)
	return out
}

// EstimateTempo derives BPM from the median inter-beat interval, folded into
// 70..180 BPM. It returns 0 when there are too few beats.
func EstimateTempo(beats []float64) float64 {
	if len(beats) < 2 {
		return 0
	}
	intervals := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		if d := beats[i] - beats[i-1]; d > 0 {
			intervals = append(intervals, d)
		}
	}
	if len(intervals) == 0 {
		return 0
	}
	sort.Float64s(intervals)
	mid := len(intervals) / 2
	median := intervals[mid]
	if len(intervals)%2 == 0 {
		median = (intervals[mid-1] + intervals[mid]) / 2
	}

	bpm := 60 / median
	for bpm < minTempo {
		bpm *= 2
	}
	for bpm >= maxTempo {
		bpm /= 2
	}
	return bpm
}
