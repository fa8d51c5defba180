// Package render turns engine frames into terminal or SDL output. Every
// pixel is a pure function of the frame parameters.
package render

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/guidoenr/chromafield/internal/engine"
	"github.com/guidoenr/chromafield/internal/palette"
)

// ErrRendererQuit is returned by Present when the user closed the window.
var ErrRendererQuit = errors.New("renderer quit")

// Backend selects where frames are presented.
type Backend string

const (
	BackendTerminal Backend = "terminal"
	BackendSDL      Backend = "sdl"
)

// Config describes a renderer.
type Config struct {
	Width   int
	Height  int
	Glyphs  string
	Pattern string
	ANSI    bool
	Backend Backend
}

// Renderer converts engine frames into ASCII lines or SDL pixels.
type Renderer struct {
	width       int
	height      int
	glyphs      []rune
	glyphName   string
	pattern     patternFunc
	patternName string
	useANSI     bool
	backend     Backend
	xCoords     []float64
	yCoords     []float64
	sdl         *sdlState

	statusBuilder strings.Builder
}

// Output is one rendered frame. Lines is empty for the SDL backend.
type Output struct {
	Lines   []string
	Status  string
	Present func(status string) error
}

var (
	resetANSI       = "\x1b[0m"
	precomputedANSI [256]string
)

func init() {
	for i := range precomputedANSI {
		precomputedANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
	}
}

// New creates a Renderer.
func New(cfg Config) (*Renderer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", cfg.Width, cfg.Height)
	}
	r := &Renderer{
		width:   cfg.Width,
		height:  cfg.Height,
		useANSI: cfg.ANSI,
		backend: BackendTerminal,
	}
	r.Configure(cfg.Glyphs, cfg.Pattern)
	if cfg.Backend == BackendSDL {
		if err := r.initSDL(); err != nil {
			return nil, fmt.Errorf("sdl backend: %w", err)
		}
	}
	return r, nil
}

// Configure switches glyph set and pattern. Unknown names fall back to defaults.
func (r *Renderer) Configure(glyphName, patternName string) {
	r.glyphs, r.glyphName = Glyphs(glyphName)
	key := strings.ToLower(patternName)
	fn, ok := patternRegistry[key]
	if !ok {
		key = defaultPattern
		fn = patternRegistry[key]
	}
	r.pattern = fn
	r.patternName = key
}

// Resize updates the framebuffer dimensions. Non-positive values are ignored.
func (r *Renderer) Resize(width, height int) {
	changed := false
	if width > 0 && width != r.width {
		r.width = width
		changed = true
	}
	if height > 0 && height != r.height {
		r.height = height
		changed = true
	}
	if changed {
		r.xCoords = nil
		r.yCoords = nil
		r.resizeSDL()
	}
}

func (r *Renderer) Size() (int, int) { return r.width, r.height }
func (r *Renderer) GlyphName() string { return r.glyphName }
func (r *Renderer) PatternName() string { return r.patternName }
func (r *Renderer) Backend() Backend { return r.backend }
func (r *Renderer) Close() error { return r.closeSDL() }

// Render draws one frame.
func (r *Renderer) Render(f engine.Frame, fps float64) Output {
	if r.width <= 0 || r.height <= 0 {
		return Output{Present: func(string) error { return nil }}
	}
	fp := buildFrameParams(f)
	r.ensureCoordinateCache(r.width, r.height)

	if r.backend == BackendSDL {
		return r.renderSDL(fp, r.buildStatus(f, fps))
	}

	lines := make([]string, r.height)
	r.forEachRow(func(y int) {
		lines[y] = r.renderRow(y, fp)
	})
	return Output{
		Lines:   lines,
		Status:  r.buildStatus(f, fps),
		Present: func(string) error { return nil },
	}
}

// forEachRow fans rows out over a worker pool and waits for all of them.
func (r *Renderer) forEachRow(fn func(y int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > r.height {
		workers = r.height
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	rows := make(chan int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rows {
				fn(y)
			}
		}()
	}
	for y := 0; y < r.height; y++ {
		rows <- y
	}
	close(rows)
	wg.Wait()
}

func (r *Renderer) renderRow(y int, fp frameParams) string {
	var b strings.Builder
	b.Grow(r.width * 8)
	last := -1
	vy := r.yCoords[y]
	for x := 0; x < r.width; x++ {
		level, col := r.shade(r.xCoords[x], vy, fp)
		if r.useANSI {
			if code := rgbToANSI(col); code != last {
				b.WriteString(colorCode(code))
				last = code
			}
		}
		b.WriteRune(r.glyph(level))
	}
	if r.useANSI {
		b.WriteString(resetANSI)
	}
	return b.String()
}

func (r *Renderer) glyph(level float64) rune {
	i := clampInt(int(level*float64(len(r.glyphs)-1)+0.5), 0, len(r.glyphs)-1)
	return r.glyphs[i]
}

// frameParams is everything a pixel needs, derived once per frame.
type frameParams struct {
	phase      float64
	speed      float64
	turbulence float64
	pulseRate  float64
	pulse      float64
	pulse2     float64
	bassFlow   float64
	level      float64
	top        palette.RGB
	bottom     palette.RGB
	accent     palette.RGB
	bands      [8]float64
	orbs       []orb
}

type orb struct {
	x, y   float64
	radius float64
}

func buildFrameParams(f engine.Frame) frameParams {
	st, p := f.State, f.Palette
	fp := frameParams{
		phase:      st.Phase,
		speed:      math.Max(0.05, p.Speed),
		turbulence: clamp01(p.Turbulence),
		pulseRate:  math.Max(0.1, p.PulseRate),
		pulse:      clamp01(st.Pulse),
		pulse2:     clamp01(st.Pulse2),
		bassFlow:   clamp01(st.BassFlow),
		level:      clampFloat(st.Intensity*p.Brightness, 0, 3),
		top:        st.TopColor,
		bottom:     st.BottomColor,
		accent:     p.Colors[2],
		bands:      st.MelBands,
	}

	count := clampInt(p.OrbCount, 0, 12)
	fp.orbs = make([]orb, count)
	breathe := 1 + 0.15*math.Sin(st.Phase*fp.pulseRate*2*math.Pi)
	for i := range fp.orbs {
		angle := 2*math.Pi*float64(i)/float64(count) + st.Phase*0.25*fp.speed
		dist := 0.22 + 0.06*math.Sin(st.Phase*0.5+float64(i))
		fp.orbs[i] = orb{
			x:      dist * math.Cos(angle),
			y:      dist * math.Sin(angle),
			radius: (0.05 + 0.07*fp.pulse + 0.04*fp.bassFlow) * breathe,
		}
	}
	return fp
}

// shade returns the brightness in 0..1 and the colour of one cell at
// normalised coordinates (x, y), y growing downwards from -0.5 to 0.5.
func (r *Renderer) shade(x, y float64, fp frameParams) (float64, palette.RGB) {
	base := palette.LerpRGB(fp.bottom, fp.top, clamp01(0.5-y))

	field := r.pattern(x, y, fp)
	if fp.turbulence > 0 {
		noise := fractalNoise(x*3+fp.phase*0.3*fp.speed, y*3-fp.phase*0.2)
		field = field*(1-fp.turbulence) + noise*fp.turbulence
	}
	field = clampFloat(field, -1, 1)

	glow := 0.0
	for _, o := range fp.orbs {
		dx, dy := x-o.x, y-o.y
		glow += math.Exp(-(dx*dx + dy*dy) / (o.radius * o.radius))
	}
	glow = clamp01(glow)

	ring := 0.0
	if fp.pulse2 > 0 {
		ringRadius := 0.5 * (1 - fp.pulse2)
		d := (math.Hypot(x, y) - ringRadius) / 0.03
		ring = fp.pulse2 * math.Exp(-d*d)
	}

	spectrum := 0.0
	band := clampInt(int((x+0.5)*float64(len(fp.bands))), 0, len(fp.bands)-1)
	if height := fp.bands[band] * 0.3; y > 0.5-height {
		spectrum = 0.25 * fp.bands[band]
	}

	level := (0.3+0.2*field)*fp.level + glow*(0.4+0.6*fp.pulse) + ring + spectrum
	level = clamp01(level)

	col := mixRGB(base, fp.accent, clamp01(glow*0.8+ring*0.5))
	return level, scaleRGB(col, 0.25+0.75*level)
}

func colorCode(index int) string {
	return precomputedANSI[clampInt(index, 0, len(precomputedANSI)-1)]
}

func rgbToANSI(c palette.RGB) int {
	r, g, b := clamp01(c.R), clamp01(c.G), clamp01(c.B)

	// grayscale ramp for unsaturated colours
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		return 232 + int(clampFloat(math.Round(r*23), 0, 23))
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))
	return 16 + 36*ri + 6*gi + bi
}

func (r *Renderer) ensureCoordinateCache(width, height int) {
	// terminal cells are roughly twice as tall as they are wide
	aspect := float64(width) / float64(2*height)
	if r.backend == BackendSDL {
		aspect = float64(width) / float64(height)
	}
	if len(r.xCoords) != width {
		r.xCoords = axis(width, aspect)
	}
	if len(r.yCoords) != height {
		r.yCoords = axis(height, 1)
	}
}

func axis(n int, scale float64) []float64 {
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	step := 1.0 / float64(n)
	for i := range out {
		out[i] = (float64(i)*step - 0.5) * scale
	}
	return out
}

func (r *Renderer) buildStatus(f engine.Frame, fps float64) string {
	b := &r.statusBuilder
	b.Reset()
	b.Grow(128)
	if f.Track != "" {
		b.WriteString(f.Track)
		b.WriteString(" | ")
	}
	b.WriteString(string(f.Source))
	b.WriteString(" fade ")
	appendFloat(b, f.Fade, 2)
	b.WriteString(" | t ")
	appendFloat(b, f.Playhead.Current, 1)
	if !f.Playhead.Playing {
		b.WriteString(" paused")
	}
	b.WriteString(" | vol ")
	appendFloat(b, f.Features.Volume, 2)
	b.WriteString(" bass ")
	appendFloat(b, f.Features.Bass, 2)
	b.WriteString(" pulse ")
	appendFloat(b, f.State.Pulse, 2)
	b.WriteString(" beats ")
	b.WriteString(strconv.Itoa(f.Beats))
	b.WriteString(" | ")
	b.WriteString(r.patternName)
	b.WriteString(" fps ")
	appendFloat(b, fps, 1)
	return b.String()
}

func appendFloat(b *strings.Builder, value float64, precision int) {
	var buf [32]byte
	b.Write(strconv.AppendFloat(buf[:0], value, 'f', precision, 64))
}

func clamp01(v float64) float64 { return clampFloat(v, 0, 1) }

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
