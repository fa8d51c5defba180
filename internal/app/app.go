// Package app runs the visualizer: one event loop that owns the session and
// multiplexes the coarse playhead clock, the render tick, keyboard input
// and web commands.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/guidoenr/chromafield/internal/engine"
	"github.com/guidoenr/chromafield/internal/render"
	"github.com/guidoenr/chromafield/internal/timeline"
	"github.com/guidoenr/chromafield/internal/web"
)

// Config configures the application runtime.
type Config struct {
	Width         int
	Height        int
	TargetFPS     float64
	PollInterval  time.Duration
	ShowStatusBar bool
	Glyphs        string
	Pattern       string
	UseANSI       bool
	Backend       render.Backend

	// TimelinePath is a bundle JSON file; empty selects a synthetic track.
	TimelinePath string
	Title        string
	Artist       string
	Tags         []string

	Engine engine.Config

	// WebAddr enables the HTTP surface when non-empty.
	WebAddr string
	// BroadcastEvery publishes every Nth frame to the web surface.
	BroadcastEvery int
	// RemotePlayhead disables the local clock; playhead updates only
	// arrive through the web surface.
	RemotePlayhead bool

	ProfilePath string
	Output      io.Writer
	Log         *log.Logger
}

type inputEvent int

const (
	inputEventBeat inputEvent = iota
	inputEventReset
	inputEventTogglePlay
	inputEventSeekBack
	inputEventSeekForward
	inputEventRandomize
	inputEventQuit
)

const seekStep = 5.0

// App ties together the session, the local clock, rendering and the web surface.
type App struct {
	cfg      Config
	log      *log.Logger
	session  *engine.Session
	renderer *render.Renderer
	clock    *playClock
	web      *web.Server
	profiler *profiler
	out      *bufio.Writer
	rng      *rand.Rand

	inputEvents chan inputEvent
	length      float64
	last        time.Time
	frames      int
	fps         float64

	width        int
	height       int
	renderHeight int
	interactive  bool
}

// New constructs the application and loads the initial track.
func New(cfg Config) (*App, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = 2
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}
	interactive := cfg.Output == nil
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Engine.Log == nil {
		cfg.Engine.Log = cfg.Log
	}

	renderHeight := cfg.Height
	if cfg.ShowStatusBar && renderHeight > 1 {
		renderHeight--
	}
	renderer, err := render.New(render.Config{
		Width:   cfg.Width,
		Height:  renderHeight,
		Glyphs:  cfg.Glyphs,
		Pattern: cfg.Pattern,
		ANSI:    cfg.UseANSI,
		Backend: cfg.Backend,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:          cfg,
		log:          cfg.Log,
		session:      engine.New(cfg.Engine),
		renderer:     renderer,
		clock:        newPlayClock(nil),
		profiler:     newProfiler(cfg.ProfilePath, cfg.Log),
		out:          bufio.NewWriterSize(cfg.Output, 64<<10),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		width:        cfg.Width,
		height:       cfg.Height,
		renderHeight: renderHeight,
		interactive:  interactive,
	}
	if cfg.WebAddr != "" {
		a.web = web.NewServer(web.Config{Addr: cfg.WebAddr, Log: cfg.Log})
	}

	track, err := loadTrack(cfg)
	if err != nil {
		_ = renderer.Close()
		return nil, err
	}
	a.loadTrack(track)
	a.log.Printf("session %s ready", a.session.ID())
	return a, nil
}

func loadTrack(cfg Config) (engine.Track, error) {
	if cfg.TimelinePath == "" {
		t := syntheticTrack(time.Now().UnixNano(), 180, 124)
		t.Tags = cfg.Tags
		if cfg.Title != "" {
			t.Title, t.Artist = cfg.Title, cfg.Artist
		}
		return t, nil
	}

	data, err := os.ReadFile(cfg.TimelinePath)
	if err != nil {
		return engine.Track{}, fmt.Errorf("read timeline: %w", err)
	}
	bundle, err := timeline.Decode(data)
	if err != nil {
		return engine.Track{}, fmt.Errorf("timeline %s: %w", cfg.TimelinePath, err)
	}
	title := cfg.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(cfg.TimelinePath), filepath.Ext(cfg.TimelinePath))
	}
	return engine.Track{Title: title, Artist: cfg.Artist, Tags: cfg.Tags, Timeline: bundle}, nil
}

// Session exposes the owned session. It must only be used from the
// goroutine running the event loop.
func (a *App) Session() *engine.Session { return a.session }

// Run drives the event loop until ctx is cancelled, the user quits or the
// SDL window closes.
func (a *App) Run(ctx context.Context) error {
	frameTicker := time.NewTicker(time.Duration(float64(time.Second) / a.cfg.TargetFPS))
	defer frameTicker.Stop()
	pollTicker := time.NewTicker(a.cfg.PollInterval)
	defer pollTicker.Stop()

	if a.terminalOutput() {
		enterAltScreen(a.out)
		clearScreen(a.out)
		hideCursor(a.out)
		defer func() {
			showCursor(a.out)
			exitAltScreen(a.out)
			_ = a.out.Flush()
		}()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var webErr chan error
	var commands <-chan web.Command
	if a.web != nil {
		webErr = make(chan error, 1)
		commands = a.web.Commands()
		go func() { webErr <- a.web.ListenAndServe(loopCtx) }()
	}
	if a.interactive {
		a.startInputListener(loopCtx)
	}
	a.ensureDimensions()
	a.last = time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-webErr:
			if err != nil {
				return err
			}
			webErr = nil
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			if a.handleInput(evt) {
				return nil
			}
		case cmd := <-commands:
			a.applyCommand(cmd)
		case <-pollTicker.C:
			a.coarseTick()
		case now := <-frameTicker.C:
			if err := a.fineTick(now); err != nil {
				if errors.Is(err, render.ErrRendererQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// Close releases held resources.
func (a *App) Close() error {
	return errors.Join(a.renderer.Close(), a.profiler.Close())
}

// coarseTick feeds the local clock into the session.
func (a *App) coarseTick() {
	if a.cfg.RemotePlayhead {
		return
	}
	pos := a.clock.Position()
	if a.length > 0 && pos > a.length {
		pos = 0
		a.clock.Seek(0)
		a.session.Seek(0)
	}
	a.session.UpdatePlayhead(pos, a.clock.Playing())
}

// fineTick advances the session by the wall time since the previous tick
// and draws the result.
func (a *App) fineTick(now time.Time) error {
	a.profiler.beginFrame()
	delta := now.Sub(a.last).Seconds()
	a.last = now
	if delta > 0 {
		a.fps = a.fps*0.9 + (1/delta)*0.1
	}

	a.ensureDimensions()
	frame := a.session.AdvanceFrame(delta)
	a.profiler.mark("advance")

	out := a.renderer.Render(frame, a.fps)
	a.profiler.mark("render")

	status := out.Status
	if a.cfg.RemotePlayhead {
		status += " | remote"
	}
	a.draw(out.Lines, status, frame)
	if err := out.Present(status); err != nil {
		return err
	}
	a.profiler.mark("present")

	a.frames++
	if a.web != nil && a.frames%a.cfg.BroadcastEvery == 0 {
		if err := a.web.Publish(frame); err != nil {
			a.log.Printf("publish frame: %v", err)
		}
	}
	a.profiler.endFrame()
	return nil
}

func (a *App) draw(lines []string, status string, frame engine.Frame) {
	if len(lines) == 0 {
		return
	}
	moveCursorHome(a.out)
	for _, line := range lines {
		a.out.WriteString(line)
		a.out.WriteByte('\n')
	}
	if a.cfg.ShowStatusBar {
		a.out.WriteString(statusBar(status, a.width, frame.Palette, a.cfg.UseANSI))
	}
	_ = a.out.Flush()
}

// applyCommand runs a web command against the session.
func (a *App) applyCommand(cmd web.Command) {
	switch cmd.Kind {
	case web.CommandPlayhead:
		if a.cfg.RemotePlayhead {
			a.session.UpdatePlayhead(cmd.T, cmd.Playing)
			return
		}
		a.clock.Seek(cmd.T)
		a.clock.SetPlaying(cmd.Playing)
	case web.CommandTrack:
		if cmd.Track != nil {
			a.loadTrack(*cmd.Track)
		}
	case web.CommandSeek:
		a.seek(cmd.T)
	case web.CommandBeat:
		a.session.TriggerBeat()
	case web.CommandReset:
		a.reset()
	default:
		a.log.Printf("unknown command %q", cmd.Kind)
	}
}

// handleInput applies a key event and reports whether the app should quit.
func (a *App) handleInput(evt inputEvent) bool {
	switch evt {
	case inputEventBeat:
		a.session.TriggerBeat()
	case inputEventReset:
		a.reset()
	case inputEventTogglePlay:
		a.clock.Toggle()
	case inputEventSeekBack:
		a.seek(a.clock.Position() - seekStep)
	case inputEventSeekForward:
		a.seek(a.clock.Position() + seekStep)
	case inputEventRandomize:
		a.randomizeVisuals()
	case inputEventQuit:
		return true
	}
	return false
}

func (a *App) loadTrack(t engine.Track) {
	a.session.LoadTrack(t)
	a.length = a.session.Timeline().Duration()
	a.clock.Seek(0)
	a.clock.SetPlaying(true)
}

func (a *App) seek(t float64) {
	if t < 0 {
		t = 0
	}
	a.clock.Seek(t)
	a.session.Seek(t)
}

func (a *App) reset() {
	a.session.Reset()
	a.length = 0
	a.clock.Seek(0)
}

func (a *App) terminalOutput() bool {
	return a.renderer.Backend() == render.BackendTerminal
}

func (a *App) ensureDimensions() {
	if !a.interactive || !a.terminalOutput() {
		return
	}
	w, h, ok := terminalSize(int(os.Stdout.Fd()))
	if !ok {
		return
	}
	renderHeight := h
	if a.cfg.ShowStatusBar && renderHeight > 1 {
		renderHeight--
	}
	if w == a.width && h == a.height && renderHeight == a.renderHeight {
		return
	}
	a.width = w
	a.height = h
	a.renderHeight = renderHeight
	a.renderer.Resize(w, renderHeight)
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		a.inputEvents = nil
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			evt, ok := keyEvent(char, key)
			if !ok {
				continue
			}
			if evt == inputEventQuit {
				events <- evt
				return
			}
			select {
			case <-ctx.Done():
				return
			case events <- evt:
			default:
			}
		}
	}()
}

func keyEvent(char rune, key keyboard.Key) (inputEvent, bool) {
	switch {
	case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
		return inputEventQuit, true
	case key == keyboard.KeySpace || char == 'b' || char == 'B':
		return inputEventBeat, true
	case char == 'r' || char == 'R':
		return inputEventReset, true
	case char == 'p' || char == 'P':
		return inputEventTogglePlay, true
	case key == keyboard.KeyArrowLeft:
		return inputEventSeekBack, true
	case key == keyboard.KeyArrowRight:
		return inputEventSeekForward, true
	case char == 'v' || char == 'V':
		return inputEventRandomize, true
	}
	return 0, false
}

func (a *App) randomizeVisuals() {
	glyphs := pickRandom(render.GlyphNames(), a.renderer.GlyphName(), a.rng)
	pattern := pickRandom(render.PatternNames(), a.renderer.PatternName(), a.rng)
	a.renderer.Configure(glyphs, pattern)
	a.log.Printf("visuals -> glyphs=%s pattern=%s", glyphs, pattern)
}

func pickRandom(options []string, current string, rng *rand.Rand) string {
	if len(options) == 0 {
		return current
	}
	if len(options) == 1 {
		return options[0]
	}
	var choice string
	for attempts := 0; attempts < 4; attempts++ {
		choice = options[rng.Intn(len(options))]
		if !strings.EqualFold(choice, current) {
			return choice
		}
	}
	return choice
}

func clearScreen(w io.Writer) {
	io.WriteString(w, "\x1b[2J")
	moveCursorHome(w)
}

func moveCursorHome(w io.Writer) { io.WriteString(w, "\x1b[H") }

func hideCursor(w io.Writer) { io.WriteString(w, "\x1b[?25l") }

func showCursor(w io.Writer) { io.WriteString(w, "\x1b[?25h") }

func enterAltScreen(w io.Writer) { io.WriteString(w, "\x1b[?1049h") }

func exitAltScreen(w io.Writer) { io.WriteString(w, "\x1b[?1049l\x1b[0m") }
