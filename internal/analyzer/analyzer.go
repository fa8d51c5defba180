// Package analyzer is the offline/live analysis pipeline that turns PCM
// windows into the feature samples a timeline bundle is made of.
package analyzer

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/guidoenr/chromafield/internal/timeline"
)

const (
	minBandHz = 40.0
	maxBandHz = 8000.0
	bassLoHz  = 20.0
	bassHiHz  = 250.0

	centroidLoHz = 100.0
	centroidHiHz = 10000.0

	silenceDB = -60.0
)

// Analyzer extracts features from successive windows of mono samples.
type Analyzer struct {
	sampleRate float64
	minBeatGap float64
	threshold  float64

	bassPeak  float64
	bandPeaks timeline.Bands
	lastBass  float64
	sinceBeat float64

	bandEdges [timeline.BandCount + 1]float64

	frame  []float64
	window []float64
	mags   []float64
	gain   float64
}

// Config controls Analyzer behavior.
type Config struct {
	SampleRate float64
	// MinBeatGap is the refractory period between onsets in seconds.
	MinBeatGap float64
	// OnsetThreshold is the bass-rise strength that counts as a beat.
	OnsetThreshold float64
}

// New creates an Analyzer with defaults for zero fields.
func New(cfg Config) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.MinBeatGap <= 0 {
		cfg.MinBeatGap = 0.3
	}
	if cfg.OnsetThreshold <= 0 {
		cfg.OnsetThreshold = 0.12
	}
	a := &Analyzer{
		sampleRate: cfg.SampleRate,
		minBeatGap: cfg.MinBeatGap,
		threshold:  cfg.OnsetThreshold,
		sinceBeat:  cfg.MinBeatGap,
	}
	a.bandEdges = melEdges(minBandHz, math.Min(maxBandHz, cfg.SampleRate/2))
	return a
}

// Analyze returns the features of one window. deltaTime is the time since
// the previous window and drives the onset refractory period.
func (a *Analyzer) Analyze(samples []float32, deltaTime float64) Features {
	if len(samples) == 0 {
		return Features{}
	}
	if deltaTime > 0 {
		a.sinceBeat += deltaTime
	}

	size := nextPow2(min(len(samples), 4096))
	if size < 256 {
		size = 256
	}
	a.ensureWorkspace(size)

	sumSq := 0.0
	for i := 0; i < size; i++ {
		v := 0.0
		if i < len(samples) {
			v = float64(samples[i])
		}
		sumSq += v * v
		a.frame[i] = v * a.window[i]
	}
	loudness := loudnessFromRMS(math.Sqrt(sumSq / float64(min(len(samples), size))))

	spectrum := fft.FFTReal(a.frame)
	half := size / 2
	for i := 0; i < half; i++ {
		a.mags[i] = cmag(spectrum[i]) * a.gain
	}
	mags := a.mags[:half]
	resolution := a.sampleRate / float64(size)

	bass := bandEnergy(mags, resolution, bassLoHz, bassHiHz)
	a.bassPeak = envelope(a.bassPeak, bass, 0.94, 0.995)

	var bands timeline.Bands
	for i := range bands {
		raw := bandEnergy(mags, resolution, a.bandEdges[i], a.bandEdges[i+1])
		a.bandPeaks[i] = envelope(a.bandPeaks[i], raw, 0.94, 0.995)
		bands[i] = dynamics(raw, a.bandPeaks[i])
	}

	strength := clamp((bass-a.lastBass)*14.0, 0, 1)
	a.lastBass = bass
	onset := false
	if strength > a.threshold && a.sinceBeat >= a.minBeatGap {
		onset = true
		a.sinceBeat = 0
	}

	return Features{
		Loudness:      loudness,
		Centroid:      centroid(mags, resolution),
		Bass:          dynamics(bass, a.bassPeak),
		Bands:         bands,
		Onset:         onset,
		OnsetStrength: strength,
	}
}

func (a *Analyzer) ensureWorkspace(size int) {
	if len(a.frame) == size {
		return
	}
	a.frame = make([]float64, size)
	a.mags = make([]float64, size/2)
	a.window = window.Hann(size)
	// scale so a full-scale sine peaks near 1
	a.gain = 2 / floats.Sum(a.window)
}

// melEdges splits [lo, hi] into BandCount bands of equal mel width.
func melEdges(lo, hi float64) [timeline.BandCount + 1]float64 {
	var edges [timeline.BandCount + 1]float64
	mLo, mHi := hzToMel(lo), hzToMel(hi)
	step := (mHi - mLo) / timeline.BandCount
	for i := range edges {
		edges[i] = melToHz(mLo + float64(i)*step)
	}
	return edges
}

func hzToMel(hz float64) float64 { return 1127 * math.Log(1+hz/700) }

func melToHz(mel float64) float64 { return 700 * (math.Exp(mel/1127) - 1) }

func bandEnergy(mags []float64, resolution, minHz, maxHz float64) float64 {
	if minHz >= maxHz {
		return 0
	}
	lo := int(math.Floor(minHz / resolution))
	hi := int(math.Ceil(maxHz/resolution)) + 1
	if hi > len(mags) {
		hi = len(mags)
	}
	if lo >= hi {
		return 0
	}
	return clamp(floats.Sum(mags[lo:hi])/float64(hi-lo)*4, 0, 1)
}

// centroid maps the spectral centroid onto 0..1 on a log axis from
// centroidLoHz to centroidHiHz.
func centroid(mags []float64, resolution float64) float64 {
	var num, den float64
	for i := 1; i < len(mags); i++ {
		num += float64(i) * resolution * mags[i]
		den += mags[i]
	}
	if den < 1e-9 {
		return 0
	}
	hz := num / den
	if hz <= centroidLoHz {
		return 0
	}
	return clamp(math.Log(hz/centroidLoHz)/math.Log(centroidHiHz/centroidLoHz), 0, 1)
}

func loudnessFromRMS(rms float64) float64 {
	if rms < 1e-9 {
		return 0
	}
	db := 20 * math.Log10(rms)
	return clamp((db-silenceDB)/-silenceDB, 0, 1)
}

func cmag(c complex128) float64 {
	return math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
}

func envelope(current, input, attack, release float64) float64 {
	if input > current {
		return current*attack + input*(1-attack)
	}
	return current * release
}

func dynamics(value, peak float64) float64 {
	if peak < 0.01 {
		return clamp(value, 0, 1)
	}
	ratio := value / peak
	if ratio < 0 {
		ratio = 0
	}
	expanded := math.Pow(ratio, 0.7) * peak
	if ratio > 0.85 {
		expanded *= 1.0 + (ratio-0.85)*2.0
	}
	return clamp(expanded, 0, 1)
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
