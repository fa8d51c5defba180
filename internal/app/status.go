package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/term"

	"github.com/guidoenr/chromafield/internal/palette"
)

// statusBar renders text as a full-width bar tinted with the active
// palette. Without colour it is padded plain text.
func statusBar(text string, width int, p palette.Palette, ansi bool) string {
	if width <= 0 {
		return text
	}
	if !ansi {
		return padRight(text, width)
	}
	bg := colorful.Color{R: p.Colors[1].R, G: p.Colors[1].G, B: p.Colors[1].B}.Clamped()
	fg := "#f0f0f0"
	if l, _, _ := bg.Lab(); l > 0.6 {
		fg = "#101010"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg.Hex())).
		Width(width).
		MaxWidth(width).
		Render(truncate(text, width))
}

func padRight(text string, width int) string {
	text = truncate(text, width)
	if n := len([]rune(text)); n < width {
		return text + strings.Repeat(" ", width-n)
	}
	return text
}

func truncate(text string, width int) string {
	r := []rune(text)
	if len(r) > width {
		return string(r[:width])
	}
	return text
}

// terminalSize returns the size of fd, or ok=false when fd is not a terminal.
func terminalSize(fd int) (int, int, bool) {
	if fd < 0 || !term.IsTerminal(fd) {
		return 0, 0, false
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
