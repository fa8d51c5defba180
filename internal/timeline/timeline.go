package timeline

import "math"

// Stream selects one of the scalar feature streams.
type Stream int

const (
	Loudness Stream = iota
	Centroid
	Bass

	scalarStreams
)

func (s Stream) String() string {
	switch s {
	case Loudness:
		return StreamLoudness
	case Centroid:
		return StreamCentroid
	case Bass:
		return StreamBass
	default:
		return "unknown"
	}
}

// Timeline stores the feature streams of the current track. Streams are
// replaced wholesale by Load and never mutated in between.
type Timeline struct {
	tempo   float64
	beats   []float64
	scalars [scalarStreams][]Sample
	bands   []BandSample
	dropped []string
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{tempo: DefaultTempo}
}

// Load replaces every stream with the contents of b. Streams that are
// unordered or carry non-finite numbers are treated as empty; values are
// clamped into 0..1.
func (tl *Timeline) Load(b Bundle) {
	tl.Reset()
	tl.dropped = append(tl.dropped, b.Dropped...)

	if finite(b.Tempo) && b.Tempo > 0 {
		tl.tempo = b.Tempo
	}

	if beats, ok := validBeats(b.Beats); ok {
		tl.beats = beats
	} else {
		tl.dropped = append(tl.dropped, StreamBeats)
	}

	for s, src := range [scalarStreams][]Sample{b.Loudness, b.Centroid, b.Bass} {
		samples, ok := validSamples(src)
		if !ok {
			tl.dropped = append(tl.dropped, Stream(s).String())
			continue
		}
		tl.scalars[s] = samples
	}

	if bands, ok := validBands(b.MelBands); ok {
		tl.bands = bands
	} else {
		tl.dropped = append(tl.dropped, StreamMelBands)
	}
}

// Reset empties every stream and restores the default tempo.
func (tl *Timeline) Reset() {
	*tl = Timeline{tempo: DefaultTempo}
}

// SampleAt interpolates stream s at time t. An empty stream yields 0 and
// queries outside the stream clamp to its first or last value.
func (tl *Timeline) SampleAt(s Stream, t float64) float64 {
	if s < 0 || s >= scalarStreams {
		return 0
	}
	samples := tl.scalars[s]
	if len(samples) == 0 {
		return 0
	}
	lo, hi, alpha := bracket(len(samples), func(i int) float64 { return samples[i].T }, t)
	return mix(samples[lo].V, samples[hi].V, alpha)
}

// BandsAt interpolates the mel bands at time t. The bracket is located once
// and shared by every band.
func (tl *Timeline) BandsAt(t float64) Bands {
	var out Bands
	if len(tl.bands) == 0 {
		return out
	}
	lo, hi, alpha := bracket(len(tl.bands), func(i int) float64 { return tl.bands[i].T }, t)
	a, b := tl.bands[lo].V, tl.bands[hi].V
	for i := range out {
		out[i] = mix(a[i], b[i], alpha)
	}
	return out
}

// Beats returns the beat times. The slice must not be modified.
func (tl *Timeline) Beats() []float64 { return tl.beats }

// Tempo returns the track tempo in BPM.
func (tl *Timeline) Tempo() float64 { return tl.tempo }

// Len reports the number of samples in stream s.
func (tl *Timeline) Len(s Stream) int {
	if s < 0 || s >= scalarStreams {
		return 0
	}
	return len(tl.scalars[s])
}

// BandLen reports the number of mel-band samples.
func (tl *Timeline) BandLen() int { return len(tl.bands) }

// Empty reports whether no stream holds data.
func (tl *Timeline) Empty() bool {
	if len(tl.beats) > 0 || len(tl.bands) > 0 {
		return false
	}
	for _, s := range tl.scalars {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Duration is the latest timestamp held by any stream, 0 when empty.
func (tl *Timeline) Duration() float64 {
	end := 0.0
	if n := len(tl.beats); n > 0 {
		end = tl.beats[n-1]
	}
	if n := len(tl.bands); n > 0 {
		end = math.Max(end, tl.bands[n-1].T)
	}
	for _, s := range tl.scalars {
		if n := len(s); n > 0 {
			end = math.Max(end, s[n-1].T)
		}
	}
	return end
}

// Dropped names the streams discarded by the last Load.
func (tl *Timeline) Dropped() []string {
	out := make([]string, len(tl.dropped))
	copy(out, tl.dropped)
	return out
}

func validBeats(src []float64) ([]float64, bool) {
	if len(src) == 0 {
		return nil, true
	}
	out := make([]float64, len(src))
	for i, t := range src {
		if !finite(t) || (i > 0 && t < src[i-1]) {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

func validSamples(src []Sample) ([]Sample, bool) {
	if len(src) == 0 {
		return nil, true
	}
	out := make([]Sample, len(src))
	for i, s := range src {
		if !finite(s.T) || !finite(s.V) || (i > 0 && s.T < src[i-1].T) {
			return nil, false
		}
		out[i] = Sample{T: s.T, V: clamp(s.V, 0, 1)}
	}
	return out, true
}

func validBands(src []BandSample) ([]BandSample, bool) {
	if len(src) == 0 {
		return nil, true
	}
	out := make([]BandSample, len(src))
	for i, s := range src {
		if !finite(s.T) || (i > 0 && s.T < src[i-1].T) {
			return nil, false
		}
		out[i].T = s.T
		for j, v := range s.V {
			if !finite(v) {
				return nil, false
			}
			out[i].V[j] = clamp(v, 0, 1)
		}
	}
	return out, true
}
