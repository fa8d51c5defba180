package mood

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/guidoenr/chromafield/internal/palette"
)

// Rule maps a set of free-text keywords to a palette.
type Rule struct {
	Name     string
	Keywords []string
	Palette  palette.Palette
}

// DefaultRules is the built-in mood table. Keywords are lower case.
var DefaultRules = []Rule{
	{
		Name:     "happy",
		Keywords: []string{"happy", "cheerful", "joyful", "upbeat", "uplifting", "sunny", "feel good", "fun"},
		Palette:  rulePalette("#ffb347", "#ff6f61", "#fff176", 1.3, 0.35, 1.2, 5, 1.15),
	},
	{
		Name:     "sad",
		Keywords: []string{"sad", "melancholic", "melancholy", "sorrow", "heartbreak", "grief", "lonely", "tearful"},
		Palette:  rulePalette("#4a6fa5", "#1b2a41", "#9fb4c7", 0.55, 0.2, 0.7, 2, 0.8),
	},
	{
		Name:     "energetic",
		Keywords: []string{"energetic", "aggressive", "intense", "powerful", "party", "dance", "hype"},
		Palette:  rulePalette("#ff1e56", "#3a0ca3", "#ffac41", 1.8, 0.85, 1.6, 7, 1.25),
	},
	{
		Name:     "calm",
		Keywords: []string{"calm", "chill", "relaxing", "peaceful", "mellow", "soothing", "laid back"},
		Palette:  rulePalette("#76c7c0", "#1d3c45", "#d2e9e1", 0.6, 0.15, 0.8, 3, 0.9),
	},
	{
		Name:     "romantic",
		Keywords: []string{"romantic", "love", "sensual", "tender", "intimate"},
		Palette:  rulePalette("#e75480", "#4b1d3f", "#f7cac9", 0.8, 0.3, 0.9, 4, 1.0),
	},
	{
		Name:     "dark",
		Keywords: []string{"dark", "ominous", "brooding", "sinister", "gloomy"},
		Palette:  rulePalette("#5c2a9d", "#0b0b1a", "#8e2de2", 0.7, 0.6, 0.9, 3, 0.7),
	},
	{
		Name:     "dreamy",
		Keywords: []string{"dreamy", "ethereal", "ambient", "atmospheric", "spacey", "hypnotic"},
		Palette:  rulePalette("#a393eb", "#2e2157", "#c7f9ff", 0.5, 0.45, 0.6, 6, 0.95),
	},
	{
		Name:     "epic",
		Keywords: []string{"epic", "triumphant", "anthemic", "cinematic", "heroic"},
		Palette:  rulePalette("#f9a826", "#6a040f", "#ffe8a1", 1.1, 0.55, 1.1, 5, 1.2),
	},
}

func rulePalette(top, bottom, accent string, speed, turbulence, pulseRate float64, orbs int, brightness float64) palette.Palette {
	return palette.Palette{
		Colors:     [3]palette.RGB{mustRGB(top), mustRGB(bottom), mustRGB(accent)},
		Speed:      speed,
		Turbulence: turbulence,
		PulseRate:  pulseRate,
		OrbCount:   orbs,
		Brightness: brightness,
	}
}

func mustRGB(hex string) palette.RGB {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic("mood: bad rule colour " + hex + ": " + err.Error())
	}
	return palette.RGB{R: c.R, G: c.G, B: c.B}
}
