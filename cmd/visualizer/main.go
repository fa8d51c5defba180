package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/guidoenr/chromafield/internal/app"
	"github.com/guidoenr/chromafield/internal/engine"
	"github.com/guidoenr/chromafield/internal/render"
)

func main() {
	var (
		width        = flag.Int("width", 80, "Frame width in cells (or pixels with -sdl)")
		height       = flag.Int("height", 24, "Frame height in cells (or pixels with -sdl)")
		targetFPS    = flag.Float64("fps", 30, "Render ticks per second")
		pollInterval = flag.Duration("poll", 250*time.Millisecond, "Playhead poll interval")
		timelinePath = flag.String("timeline", "", "Feature timeline bundle JSON (synthetic track when empty)")
		title        = flag.String("title", "", "Track title")
		artist       = flag.String("artist", "", "Track artist")
		tags         = flag.String("tags", "", "Comma-separated mood tags")
		configPath   = flag.String("config", "", "Engine tuning JSON")
		webAddr      = flag.String("web", "", "Serve the HTTP/websocket surface on this address, e.g. :8080")
		broadcast    = flag.Int("broadcast-every", 2, "Publish every Nth frame to websocket clients")
		remote       = flag.Bool("remote-playhead", false, "Take playhead updates only from POST /api/playhead")
		glyphs       = flag.String("glyphs", "default", "Glyph ramp ("+strings.Join(render.GlyphNames(), "|")+")")
		pattern      = flag.String("pattern", "plasma", "Background pattern ("+strings.Join(render.PatternNames(), "|")+")")
		useSDL       = flag.Bool("sdl", false, "Render into an SDL window (requires -tags sdl)")
		showStatus   = flag.Bool("status", true, "Display status bar")
		noColor      = flag.Bool("no-color", false, "Disable ANSI color output")
		profilePath  = flag.String("profile", "", "Write per-frame timings as CSV to this file")
		debug        = flag.Bool("debug", false, "Enable verbose logging")
	)

	flag.Parse()

	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}
	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}
	if *useSDL && !render.SupportsSDL() {
		log.Fatalf("this binary was built without SDL support; rebuild with -tags sdl")
	}

	backend := render.BackendTerminal
	if *useSDL {
		backend = render.BackendSDL
	} else if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			*width, *height = w, h
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stdout, "[chromafield] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	engineCfg := engine.DefaultConfig()
	if *configPath != "" {
		cfg, err := engine.LoadConfig(*configPath)
		if err != nil {
			logger.Fatalf("engine config: %v", err)
		}
		engineCfg = cfg
	}
	if *debug {
		engineCfg.Log = logger
	}

	a, err := app.New(app.Config{
		Width:          *width,
		Height:         *height,
		TargetFPS:      *targetFPS,
		PollInterval:   *pollInterval,
		ShowStatusBar:  *showStatus && !*useSDL,
		Glyphs:         *glyphs,
		Pattern:        *pattern,
		UseANSI:        !*noColor,
		Backend:        backend,
		TimelinePath:   *timelinePath,
		Title:          *title,
		Artist:         *artist,
		Tags:           splitTags(*tags),
		Engine:         engineCfg,
		WebAddr:        *webAddr,
		BroadcastEvery: *broadcast,
		RemotePlayhead: *remote,
		ProfilePath:    *profilePath,
		Log:            logger,
	})
	if err != nil {
		logger.Fatalf("failed to create app: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return
		}
		logger.Fatalf("runtime error: %v", err)
	}
}

func splitTags(s string) []string {
	var out []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
