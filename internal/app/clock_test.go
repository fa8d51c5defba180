package app

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/guidoenr/chromafield/internal/palette"
	"github.com/guidoenr/chromafield/internal/timeline"
)

func TestPlayClock(t *testing.T) {
	fc := &fakeClock{t: time.Unix(10, 0)}
	c := newPlayClock(fc.now)

	fc.advance(2 * time.Second)
	if got := c.Position(); got != 2 {
		t.Fatalf("position=%f want=2", got)
	}
	c.SetPlaying(false)
	fc.advance(5 * time.Second)
	if got := c.Position(); got != 2 {
		t.Fatalf("paused clock moved to %f", got)
	}
	c.Toggle()
	fc.advance(500 * time.Millisecond)
	if got := c.Position(); got != 2.5 {
		t.Fatalf("position=%f want=2.5", got)
	}
	c.Seek(math.NaN())
	if got := c.Position(); got != 0 {
		t.Fatalf("bad seek should go to 0, got %f", got)
	}
}

func TestSyntheticTrack(t *testing.T) {
	track := syntheticTrack(1, 10, 120)
	tl := timeline.New()
	tl.Load(track.Timeline)
	if len(tl.Dropped()) != 0 {
		t.Fatalf("dropped=%v", tl.Dropped())
	}
	if got := len(tl.Beats()); got != 19 {
		t.Fatalf("beats=%d want=19", got)
	}
	if tl.Len(timeline.Loudness) != 101 || tl.BandLen() != 101 {
		t.Fatalf("expected 10 Hz samples over 10s")
	}
	if tl.Tempo() != 120 {
		t.Fatalf("tempo=%f", tl.Tempo())
	}

	again := syntheticTrack(1, 10, 120)
	if again.Timeline.Loudness[50] != track.Timeline.Loudness[50] {
		t.Fatalf("same seed should give the same track")
	}
}

func TestStatusBarPlainPadding(t *testing.T) {
	got := statusBar("abc", 6, palette.Default(), false)
	if got != "abc   " {
		t.Fatalf("status=%q", got)
	}
	if got := statusBar("abcdefgh", 4, palette.Default(), false); got != "abcd" {
		t.Fatalf("status=%q", got)
	}
	if got := statusBar("now playing", 20, palette.Default(), true); !strings.Contains(got, "now playing") {
		t.Fatalf("styled status lost its text: %q", got)
	}
}
