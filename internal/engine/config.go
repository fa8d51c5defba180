package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/guidoenr/chromafield/internal/mood"
	"github.com/guidoenr/chromafield/internal/palette"
	"github.com/guidoenr/chromafield/internal/smoothing"
	"github.com/guidoenr/chromafield/internal/visual"
)

// Config tunes a Session.
type Config struct {
	Smoothing smoothing.Alphas `json:"smoothing"`
	Visual    visual.Config    `json:"visual"`

	// FadeDuration is the wall-clock palette fade in seconds. Zero selects
	// the fixed per-frame FadeStep instead.
	FadeDuration float64 `json:"fadeDuration"`
	FadeStep     float64 `json:"fadeStep"`

	// Rules replaces the built-in mood table when non-empty.
	Rules []mood.Rule `json:"-"`
	// Palette is shown before the first track and after a reset.
	Palette *palette.Palette `json:"palette,omitempty"`

	Log *log.Logger `json:"-"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Smoothing:    smoothing.DefaultAlphas(),
		Visual:       visual.DefaultConfig(),
		FadeDuration: 1.5,
		FadeStep:     palette.DefaultFadeStep,
	}
}

// LoadConfig reads a JSON tuning file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) basePalette() palette.Palette {
	if c.Palette != nil {
		return *c.Palette
	}
	return palette.Default()
}

func (c Config) normalized() Config {
	c.Smoothing = c.Smoothing.Normalized()
	c.Visual = c.Visual.Normalized()
	if !(c.FadeDuration >= 0) || math.IsInf(c.FadeDuration, 0) {
		c.FadeDuration = 0
	}
	if !(c.FadeStep > 0 && c.FadeStep <= 1) {
		c.FadeStep = palette.DefaultFadeStep
	}
	return c
}
