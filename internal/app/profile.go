package app

import (
	"fmt"
	"log"
	"os"
	"time"
)

// profiler appends per-section frame timings as CSV. A nil profiler is a
// valid no-op.
type profiler struct {
	file  *os.File
	frame int
	start time.Time
	last  time.Time
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		logger.Printf("profiler disabled: %v", err)
		return nil
	}
	fmt.Fprintln(f, "timestamp,frame,section,ms")
	return &profiler{file: f}
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	p.frame++
	p.start = time.Now()
	p.last = p.start
}

func (p *profiler) mark(section string) {
	if p == nil {
		return
	}
	now := time.Now()
	p.write(section, now.Sub(p.last))
	p.last = now
}

func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	p.write("total", time.Since(p.start))
}

func (p *profiler) write(section string, d time.Duration) {
	fmt.Fprintf(p.file, "%s,%d,%s,%.3f\n", time.Now().Format(time.RFC3339Nano), p.frame, section, d.Seconds()*1000)
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	return p.file.Close()
}
