// Package visual advances the per-frame visual parameters from elapsed time
// and the smoothed audio features.
package visual

import (
	"math"

	"github.com/guidoenr/chromafield/internal/palette"
	"github.com/guidoenr/chromafield/internal/smoothing"
	"github.com/guidoenr/chromafield/internal/timeline"
)

const (
	// NominalDelta is used when a frame arrives without a usable dt.
	NominalDelta = 1.0 / 60.0
	// MaxDelta bounds a single step across frame hitches.
	MaxDelta = 0.05

	referenceTempo = 120.0
	baseIntensity  = 1.0
)

// State is the frame contract read by renderers.
type State struct {
	Pulse       float64        `json:"pulse"`
	Pulse2      float64        `json:"pulse2"`
	Phase       float64        `json:"phase"`
	Intensity   float64        `json:"intensity"`
	BassFlow    float64        `json:"bassFlow"`
	TopColor    palette.RGB    `json:"topColor"`
	BottomColor palette.RGB    `json:"bottomColor"`
	MelBands    timeline.Bands `json:"melbands"`
	Centroid    float64        `json:"centroid"`
	Tempo       float64        `json:"tempo"`
}

// InitialState is the state after construction or reset.
func InitialState(p palette.Palette) State {
	return State{
		Intensity:   baseIntensity,
		TopColor:    p.Colors[0],
		BottomColor: p.Colors[1],
		Tempo:       timeline.DefaultTempo,
	}
}

// Config holds the decay and easing constants. Rates are the fraction that
// remains after 1/60 s and are scaled to the real dt as rate^(dt*60).
type Config struct {
	PulseDecay        float64 `json:"pulseDecay"`
	Pulse2Decay       float64 `json:"pulse2Decay"`
	IdlePulseDecay    float64 `json:"idlePulseDecay"`
	IdlePulse2Decay   float64 `json:"idlePulse2Decay"`
	IdleBassFlowDecay float64 `json:"idleBassFlowDecay"`
	BassFlowEase      float64 `json:"bassFlowEase"`
	IntensityEase     float64 `json:"intensityEase"`
	PhaseBassGain     float64 `json:"phaseBassGain"`
	HueShift          float64 `json:"hueShift"`
	BeatPulse         float64 `json:"beatPulse"`
	BeatPulse2        float64 `json:"beatPulse2"`
	Epsilon           float64 `json:"epsilon"`
}

// DefaultConfig lets a beat pulse fade out fully within half a second, one
// beat at 120 BPM.
func DefaultConfig() Config {
	return Config{
		PulseDecay:        0.90,
		Pulse2Decay:       0.82,
		IdlePulseDecay:    0.88,
		IdlePulse2Decay:   0.80,
		IdleBassFlowDecay: 0.92,
		BassFlowEase:      0.85,
		IntensityEase:     0.90,
		PhaseBassGain:     0.8,
		HueShift:          0.25,
		BeatPulse:         1.0,
		BeatPulse2:        0.8,
		Epsilon:           1e-4,
	}
}

// Normalized replaces unusable constants with the defaults.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	rate := func(v, fallback float64) float64 {
		if !(v > 0 && v < 1) {
			return fallback
		}
		return v
	}
	positive := func(v, fallback float64) float64 {
		if !(v > 0) || math.IsInf(v, 0) {
			return fallback
		}
		return v
	}
	nonNegative := func(v, fallback float64) float64 {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fallback
		}
		return v
	}
	return Config{
		PulseDecay:        rate(c.PulseDecay, def.PulseDecay),
		Pulse2Decay:       rate(c.Pulse2Decay, def.Pulse2Decay),
		IdlePulseDecay:    rate(c.IdlePulseDecay, def.IdlePulseDecay),
		IdlePulse2Decay:   rate(c.IdlePulse2Decay, def.IdlePulse2Decay),
		IdleBassFlowDecay: rate(c.IdleBassFlowDecay, def.IdleBassFlowDecay),
		BassFlowEase:      rate(c.BassFlowEase, def.BassFlowEase),
		IntensityEase:     rate(c.IntensityEase, def.IntensityEase),
		PhaseBassGain:     nonNegative(c.PhaseBassGain, def.PhaseBassGain),
		HueShift:          nonNegative(c.HueShift, def.HueShift),
		BeatPulse:         positive(c.BeatPulse, def.BeatPulse),
		BeatPulse2:        positive(c.BeatPulse2, def.BeatPulse2),
		Epsilon:           positive(c.Epsilon, def.Epsilon),
	}
}

// Input is everything a frame step reads besides its own state.
type Input struct {
	Playing  bool
	Features smoothing.Features
	Palette  palette.Palette
	Tempo    float64
}

// Integrator owns State and advances it once per render tick.
type Integrator struct {
	cfg   Config
	state State
}

// NewIntegrator starts from InitialState(p).
func NewIntegrator(cfg Config, p palette.Palette) *Integrator {
	return &Integrator{cfg: cfg.Normalized(), state: InitialState(p)}
}

// Advance steps the state by dt seconds. A missing or non-positive dt counts
// as one nominal frame and long gaps are capped at MaxDelta.
func (in *Integrator) Advance(dt float64, input Input) State {
	dt = ClampDelta(dt)
	s := &in.state
	f := input.Features
	frames := dt * 60

	tempo := input.Tempo
	if !(tempo > 0) || math.IsInf(tempo, 0) {
		tempo = timeline.DefaultTempo
	}
	s.Tempo = tempo
	s.Centroid = f.Centroid
	s.MelBands = f.MelBands

	if !input.Playing {
		s.Pulse = decay(s.Pulse, in.cfg.IdlePulseDecay, frames, in.cfg.Epsilon)
		s.Pulse2 = decay(s.Pulse2, in.cfg.IdlePulse2Decay, frames, in.cfg.Epsilon)
		s.BassFlow = decay(s.BassFlow, in.cfg.IdleBassFlowDecay, frames, in.cfg.Epsilon)
		s.Intensity = ease(s.Intensity, baseIntensity, in.cfg.IntensityEase, frames)
	} else {
		s.Phase += dt * (tempo/referenceTempo + f.Bass*in.cfg.PhaseBassGain)
		s.BassFlow = ease(s.BassFlow, f.Bass, in.cfg.BassFlowEase, frames)
		s.Pulse = decay(s.Pulse, in.cfg.PulseDecay, frames, in.cfg.Epsilon)
		s.Pulse2 = decay(s.Pulse2, in.cfg.Pulse2Decay, frames, in.cfg.Epsilon)
		s.Intensity = ease(s.Intensity, 0.70+f.Volume*1.2, in.cfg.IntensityEase, frames)
	}

	shift := f.Centroid * in.cfg.HueShift
	s.TopColor = RotateHue(input.Palette.Colors[0], shift)
	s.BottomColor = RotateHue(input.Palette.Colors[1], shift*0.4)
	return *s
}

// TriggerBeat sets both pulses to their beat levels. Calling it repeatedly
// leaves the same state as calling it once.
func (in *Integrator) TriggerBeat() {
	in.state.Pulse = in.cfg.BeatPulse
	in.state.Pulse2 = in.cfg.BeatPulse2
}

// State returns a copy of the current state.
func (in *Integrator) State() State { return in.state }

// Config returns the constants in use.
func (in *Integrator) Config() Config { return in.cfg }

// Reset returns to InitialState(p), including phase.
func (in *Integrator) Reset(p palette.Palette) {
	in.state = InitialState(p)
}

// ClampDelta maps a render delta onto the range Advance integrates over:
// zero, negative and non-finite values become NominalDelta and long gaps
// are capped at MaxDelta.
func ClampDelta(dt float64) float64 {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return NominalDelta
	}
	if dt > MaxDelta {
		return MaxDelta
	}
	return dt
}

// decay multiplies v by rate^frames and snaps tiny results to zero.
func decay(v, rate, frames, epsilon float64) float64 {
	v *= math.Pow(rate, frames)
	if v < epsilon {
		return 0
	}
	return v
}

// ease moves current towards target; rate is the fraction of the gap left
// after one 60 Hz frame.
func ease(current, target, rate, frames float64) float64 {
	keep := math.Pow(rate, frames)
	return current*keep + target*(1-keep)
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
