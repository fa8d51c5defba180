// Package engine owns the per-session state machine sampled by renderers.
//
// A Session has two update entry points driven by unsynchronized clocks:
// UpdatePlayhead (coarse, ~4 Hz) and AdvanceFrame (fine, render rate). Both
// must be called from one goroutine. The smoothed features are the only
// value written by the coarse side and read by the fine side; they are
// published as an immutable snapshot through an atomic pointer so a reader
// never observes a half-written record.
package engine

import (
	"io"
	"log"
	"math"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/guidoenr/chromafield/internal/mood"
	"github.com/guidoenr/chromafield/internal/palette"
	"github.com/guidoenr/chromafield/internal/smoothing"
	"github.com/guidoenr/chromafield/internal/timeline"
	"github.com/guidoenr/chromafield/internal/visual"
)

// Track is everything known about a song at load time.
type Track struct {
	Title    string          `json:"title"`
	Artist   string          `json:"artist"`
	Tags     []string        `json:"tags,omitempty"`
	Timeline timeline.Bundle `json:"timeline"`
}

// Identity is the string the hash fallback palette is derived from.
func (t Track) Identity() string {
	return mood.Identity(t.Title, t.Artist)
}

// Playhead is the last coarse sample.
type Playhead struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Playing  bool    `json:"playing"`
}

// PaletteSource records where the track palette came from.
type PaletteSource string

const (
	SourceDefault PaletteSource = "default"
	SourceMood    PaletteSource = "mood"
	SourceHash    PaletteSource = "hash"
)

// Frame is the read-only snapshot handed to renderers once per tick.
type Frame struct {
	Session  string             `json:"session"`
	Track    string             `json:"track,omitempty"`
	State    visual.State       `json:"state"`
	Palette  palette.Palette    `json:"palette"`
	Fade     float64            `json:"fade"`
	Source   PaletteSource      `json:"source"`
	Playhead Playhead           `json:"playhead"`
	Features smoothing.Features `json:"features"`
	Beats    int                `json:"beats"`
}

// Session is the state container for one active visualisation.
type Session struct {
	id  string
	cfg Config
	log *log.Logger

	timeline   *timeline.Timeline
	smoother   *smoothing.Engine
	beats      smoothing.BeatDetector
	integrator *visual.Integrator
	fader      *palette.Crossfader
	resolver   *mood.Resolver

	playhead Playhead
	smoothed atomic.Pointer[smoothing.Features]
	track    string
	source   PaletteSource
	beatHits int
}

// New creates a session with a fresh ID.
func New(cfg Config) *Session {
	cfg = cfg.normalized()
	logger := cfg.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	base := cfg.basePalette()
	s := &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		log:        logger,
		timeline:   timeline.New(),
		smoother:   smoothing.NewEngine(cfg.Smoothing),
		integrator: visual.NewIntegrator(cfg.Visual, base),
		fader:      palette.NewCrossfader(base, cfg.FadeStep, cfg.FadeDuration),
		resolver:   mood.NewResolver(cfg.Rules),
		source:     SourceDefault,
	}
	s.publish(smoothing.Features{})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LoadTrack installs a new timeline, rewinds the beat cursor and starts a
// palette fade to the track's palette.
func (s *Session) LoadTrack(t Track) {
	s.timeline.Load(t.Timeline)
	s.beats.Load(s.timeline.Beats())
	s.track = strings.TrimSpace(strings.Trim(t.Title+" - "+t.Artist, " -"))

	target, ok := s.resolver.Resolve(t.Tags)
	if ok {
		s.source = SourceMood
	} else {
		target = mood.HashPalette(t.Identity())
		s.source = SourceHash
	}
	s.fader.SetTarget(target)

	if dropped := s.timeline.Dropped(); len(dropped) > 0 {
		s.log.Printf("track %q: ignoring malformed streams %v", s.track, dropped)
	}
	s.log.Printf("track %q loaded: tempo=%.1f beats=%d palette=%s", s.track, s.timeline.Tempo(), len(s.timeline.Beats()), s.source)
}

// UpdatePlayhead is the coarse entry point. t is the playback position in
// seconds; negative or non-finite positions are treated as 0. Out-of-order
// samples are accepted and simply resampled.
func (s *Session) UpdatePlayhead(t float64, playing bool) {
	if !(t >= 0) || math.IsInf(t, 0) {
		t = 0
	}
	s.playhead.Previous = s.playhead.Current
	s.playhead.Current = t
	s.playhead.Playing = playing
	if !playing {
		return
	}

	raw := smoothing.Features{
		Volume:   s.timeline.SampleAt(timeline.Loudness, t),
		Centroid: s.timeline.SampleAt(timeline.Centroid, t),
		Bass:     s.timeline.SampleAt(timeline.Bass, t),
		MelBands: s.timeline.BandsAt(t),
	}
	s.publish(s.smoother.Update(raw))

	if s.beats.CheckCrossing(t) {
		s.beatHits++
		s.integrator.TriggerBeat()
	}
}

// AdvanceFrame is the fine entry point, called once per render tick.
func (s *Session) AdvanceFrame(dt float64) Frame {
	dt = visual.ClampDelta(dt)
	active := s.fader.Advance(dt)
	s.integrator.Advance(dt, visual.Input{
		Playing:  s.playhead.Playing,
		Features: s.Smoothed(),
		Palette:  active,
		Tempo:    s.timeline.Tempo(),
	})
	return s.Frame()
}

// Seek moves the beat cursor to t so the next beat reported is the first
// one after t.
func (s *Session) Seek(t float64) {
	if !(t >= 0) || math.IsInf(t, 0) {
		t = 0
	}
	s.beats.Seek(t)
	s.playhead.Previous = t
	s.playhead.Current = t
}

// TriggerBeat forces a beat pulse, as from a manual tap.
func (s *Session) TriggerBeat() {
	s.integrator.TriggerBeat()
}

// Reset zeroes all state: timeline, smoothed features, visual state, beat
// cursor, playhead and palette.
func (s *Session) Reset() {
	base := s.cfg.basePalette()
	s.timeline.Reset()
	s.beats.Reset()
	s.smoother.Reset()
	s.publish(smoothing.Features{})
	s.integrator.Reset(base)
	s.fader.Reset(base)
	s.playhead = Playhead{}
	s.track = ""
	s.source = SourceDefault
	s.beatHits = 0
	s.log.Printf("session %s reset", s.id)
}

// Smoothed returns the latest published smoothed features.
func (s *Session) Smoothed() smoothing.Features {
	if p := s.smoothed.Load(); p != nil {
		return *p
	}
	return smoothing.Features{}
}

// Frame returns the current snapshot without advancing anything.
func (s *Session) Frame() Frame {
	return Frame{
		Session:  s.id,
		Track:    s.track,
		State:    s.integrator.State(),
		Palette:  s.fader.Active(),
		Fade:     s.fader.Progress(),
		Source:   s.source,
		Playhead: s.playhead,
		Features: s.Smoothed(),
		Beats:    s.beatHits,
	}
}

// Timeline exposes the loaded timeline for inspection.
func (s *Session) Timeline() *timeline.Timeline { return s.timeline }

// BeatCursor returns the index of the next beat to be crossed.
func (s *Session) BeatCursor() int { return s.beats.Cursor() }

func (s *Session) publish(f smoothing.Features) {
	snap := f
	s.smoothed.Store(&snap)
}
