package main

import (
	"context"
	"time"

	"github.com/guidoenr/chromafield/internal/analyzer"
	"github.com/guidoenr/chromafield/internal/timeline"
)

// windowSource yields the latest analysis window and its stream position.
type windowSource interface {
	Window(dst []float32) ([]float32, time.Duration)
}

// record analyses one window per tick until ctx is done. Windows are
// timestamped with the capture position so the bundle lines up with the
// audio rather than with the wall clock.
func record(ctx context.Context, src windowSource, an *analyzer.Analyzer, rate, floor float64) timeline.Bundle {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	builder := analyzer.NewBuilder()
	var (
		buf  []float32
		last time.Duration
	)
	for {
		select {
		case <-ctx.Done():
			return builder.Bundle()
		case <-ticker.C:
			var pos time.Duration
			buf, pos = src.Window(buf)
			if pos <= last {
				continue
			}
			dt := (pos - last).Seconds()
			last = pos
			f := analyzer.GateFeatures(an.Analyze(buf, dt), floor)
			builder.Add(pos.Seconds(), f)
		}
	}
}
