package palette

import "math"

// DefaultFadeStep is the per-call progress increment used when no wall-clock
// duration is configured: 120 calls, two seconds at 60 Hz.
const DefaultFadeStep = 1.0 / 120.0

// nominalDelta stands in for a missing or unusable dt in duration mode.
const nominalDelta = 1.0 / 60.0

// Crossfader moves the active palette towards a target.
//
// With Duration > 0 progress advances by dt/Duration so a fade takes the same
// wall-clock time on any display. With Duration == 0 progress advances by a
// fixed Step per Advance call and the fade length follows the call rate.
type Crossfader struct {
	from     Palette
	to       Palette
	active   Palette
	progress float64
	step     float64
	duration float64
}

// NewCrossfader returns a settled fader showing initial.
func NewCrossfader(initial Palette, step, duration float64) *Crossfader {
	if !(step > 0) || math.IsInf(step, 0) {
		step = DefaultFadeStep
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		duration = 0
	}
	return &Crossfader{
		from:     initial,
		to:       initial,
		active:   initial,
		progress: 1,
		step:     step,
		duration: duration,
	}
}

// SetTarget starts a fade from whatever is showing now towards p.
func (c *Crossfader) SetTarget(p Palette) {
	c.from = c.active
	c.to = p
	c.progress = 0
}

// Advance moves the fade forward and returns the active palette.
func (c *Crossfader) Advance(dt float64) Palette {
	if c.progress >= 1 {
		return c.active
	}
	inc := c.step
	if c.duration > 0 {
		if !(dt > 0) || math.IsInf(dt, 0) {
			dt = nominalDelta
		}
		inc = dt / c.duration
	}
	c.progress = math.Min(1, c.progress+inc)
	if c.progress >= 1 {
		c.active = c.to
		return c.active
	}
	c.active = Lerp(c.from, c.to, c.progress)
	return c.active
}

// Active returns the palette currently showing.
func (c *Crossfader) Active() Palette { return c.active }

// Target returns the destination of the current fade.
func (c *Crossfader) Target() Palette { return c.to }

// Progress returns the blend position, 1 once settled.
func (c *Crossfader) Progress() float64 { return c.progress }

// Settled reports whether the active palette equals the target.
func (c *Crossfader) Settled() bool { return c.progress >= 1 }

// Reset jumps straight to p with no fade.
func (c *Crossfader) Reset(p Palette) {
	c.from, c.to, c.active = p, p, p
	c.progress = 1
}
