package app

import "time"

// playClock is the local playback position used when no external player
// feeds the playhead.
type playClock struct {
	now     func() time.Time
	base    float64
	anchor  time.Time
	playing bool
}

func newPlayClock(now func() time.Time) *playClock {
	if now == nil {
		now = time.Now
	}
	return &playClock{now: now, anchor: now(), playing: true}
}

// Position returns the playback position in seconds.
func (c *playClock) Position() float64 {
	if !c.playing {
		return c.base
	}
	return c.base + c.now().Sub(c.anchor).Seconds()
}

func (c *playClock) Playing() bool { return c.playing }

func (c *playClock) SetPlaying(on bool) {
	if on == c.playing {
		return
	}
	c.base = c.Position()
	c.anchor = c.now()
	c.playing = on
}

func (c *playClock) Toggle() { c.SetPlaying(!c.playing) }

func (c *playClock) Seek(t float64) {
	if !(t > 0) {
		t = 0
	}
	c.base = t
	c.anchor = c.now()
}
