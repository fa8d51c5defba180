package engine

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/guidoenr/chromafield/internal/mood"
	"github.com/guidoenr/chromafield/internal/palette"
	"github.com/guidoenr/chromafield/internal/smoothing"
	"github.com/guidoenr/chromafield/internal/timeline"
	"github.com/guidoenr/chromafield/internal/visual"
)

func testTrack() Track {
	return Track{
		Title:  "Test Song",
		Artist: "Test Artist",
		Tags:   []string{"melancholic"},
		Timeline: timeline.Bundle{
			Tempo:    100,
			Beats:    []float64{0.5, 1.0, 1.5, 2.0},
			Loudness: []timeline.Sample{{T: 0, V: 0.5}, {T: 10, V: 0.5}},
			Centroid: []timeline.Sample{{T: 0, V: 0.4}, {T: 10, V: 0.4}},
			Bass:     []timeline.Sample{{T: 0, V: 0.8}, {T: 10, V: 0.8}},
		},
	}
}

func sadPalette(t *testing.T) palette.Palette {
	t.Helper()
	for _, r := range mood.DefaultRules {
		if r.Name == "sad" {
			return r.Palette
		}
	}
	t.Fatalf("sad rule missing")
	return palette.Palette{}
}

func TestLoadTrackResolvesMoodPalette(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(testTrack())
	if f := s.Frame(); f.Source != SourceMood || f.Fade != 0 {
		t.Fatalf("frame=%+v want mood source and a fresh fade", f)
	}
	for i := 0; i < 200; i++ {
		s.AdvanceFrame(visual.NominalDelta)
	}
	if got := s.Frame().Palette; got != sadPalette(t) {
		t.Fatalf("palette did not settle on the sad rule: %+v", got)
	}
}

func TestZeroDeltaFramesStillFade(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(Track{Tags: []string{"sad"}})
	for i := 0; i < 10000; i++ {
		s.AdvanceFrame(0)
	}
	f := s.Frame()
	if f.Fade != 1 {
		t.Fatalf("fade=%f after dt=0 frames, want 1", f.Fade)
	}
	if f.Palette != sadPalette(t) {
		t.Fatalf("palette did not reach the target: %+v", f.Palette)
	}
}

func TestLoadTrackFallsBackToHash(t *testing.T) {
	s := New(DefaultConfig())
	tr := testTrack()
	tr.Tags = nil
	s.LoadTrack(tr)
	for i := 0; i < 200; i++ {
		s.AdvanceFrame(visual.NominalDelta)
	}
	f := s.Frame()
	if f.Source != SourceHash {
		t.Fatalf("source=%s want hash", f.Source)
	}
	if f.Palette != mood.HashPalette(tr.Identity()) {
		t.Fatalf("palette should be the identity hash palette")
	}
}

func TestCoarseUpdateSmoothsAndTriggersBeats(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(testTrack())

	s.UpdatePlayhead(0.25, true)
	if s.Frame().Beats != 0 {
		t.Fatalf("no beat before 0.5s")
	}
	s.UpdatePlayhead(0.6, true)
	f := s.AdvanceFrame(0)
	if f.Beats != 1 {
		t.Fatalf("beats=%d want=1", f.Beats)
	}
	if f.State.Pulse <= 0 || f.State.Pulse2 <= 0 {
		t.Fatalf("beat crossing should excite pulses: %+v", f.State)
	}
	sm := s.Smoothed()
	if sm.Bass <= sm.Volume {
		t.Fatalf("bass should track faster than volume: %+v", sm)
	}
	if f.State.Tempo != 100 {
		t.Fatalf("tempo=%f want=100", f.State.Tempo)
	}

	// a coarse step straddling several beats still counts one edge
	s.UpdatePlayhead(2.1, true)
	if got := s.Frame().Beats; got != 2 {
		t.Fatalf("beats=%d want=2", got)
	}
}

func TestPausedPlayheadHoldsFeatures(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(testTrack())
	s.UpdatePlayhead(1, true)
	held := s.Smoothed()
	s.UpdatePlayhead(3, false)
	if s.Smoothed() != held {
		t.Fatalf("paused update should not change smoothed features")
	}
	if s.BeatCursor() != 2 {
		t.Fatalf("paused update should not move the beat cursor, got %d", s.BeatCursor())
	}
}

func TestOutOfOrderPlayheadTolerated(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(testTrack())
	s.UpdatePlayhead(1.6, true)
	s.UpdatePlayhead(0.2, true)
	s.UpdatePlayhead(math.NaN(), true)
	s.UpdatePlayhead(-5, true)
	f := s.AdvanceFrame(visual.NominalDelta)
	if f.Playhead.Current != 0 {
		t.Fatalf("invalid positions should clamp to 0, got %f", f.Playhead.Current)
	}
	if s.BeatCursor() != 3 {
		t.Fatalf("cursor=%d want=3, stale after going backwards", s.BeatCursor())
	}
}

func TestSeekRewindsBeatCursor(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(testTrack())
	s.UpdatePlayhead(1.6, true)
	s.Seek(0.7)
	if s.BeatCursor() != 1 {
		t.Fatalf("cursor=%d want=1", s.BeatCursor())
	}
	before := s.Frame().Beats
	s.UpdatePlayhead(1.1, true)
	if s.Frame().Beats != before+1 {
		t.Fatalf("expected the beat at 1.0 to fire again after seeking back")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(testTrack())
	for i := 0; i < 20; i++ {
		s.UpdatePlayhead(float64(i)*0.25, true)
		s.AdvanceFrame(visual.NominalDelta)
	}
	s.TriggerBeat()

	s.Reset()
	f := s.Frame()
	if !s.Timeline().Empty() {
		t.Fatalf("timeline should be empty after reset")
	}
	if s.Smoothed() != (smoothing.Features{}) {
		t.Fatalf("smoothed features should be zero, got %+v", s.Smoothed())
	}
	if f.State != visual.InitialState(palette.Default()) {
		t.Fatalf("visual state=%+v", f.State)
	}
	if s.BeatCursor() != 0 {
		t.Fatalf("beat cursor=%d want=0", s.BeatCursor())
	}
	if f.Palette != palette.Default() || f.Fade != 1 || f.Source != SourceDefault {
		t.Fatalf("palette should be back to default: %+v", f)
	}
	if f.Playhead != (Playhead{}) {
		t.Fatalf("playhead=%+v", f.Playhead)
	}
}

func TestResetMidFadeThenReload(t *testing.T) {
	s := New(DefaultConfig())
	s.LoadTrack(testTrack())
	s.AdvanceFrame(0.2)
	s.Reset()
	s.LoadTrack(testTrack())
	if s.BeatCursor() != 0 || s.Frame().Fade != 0 {
		t.Fatalf("reload after reset should start fresh")
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"fadeDuration": 0, "smoothing": {"bass": 0.9}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FadeDuration != 0 || cfg.Smoothing.Bass != 0.9 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Smoothing.Volume != smoothing.DefaultAlphas().Volume {
		t.Fatalf("missing fields should keep defaults: %+v", cfg.Smoothing)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	if New(DefaultConfig()).ID() == New(DefaultConfig()).ID() {
		t.Fatalf("expected distinct session IDs")
	}
}
