package render

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/guidoenr/chromafield/internal/palette"
)

func toColorful(c palette.RGB) colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

func fromColorful(c colorful.Color) palette.RGB {
	c = c.Clamped()
	return palette.RGB{R: c.R, G: c.G, B: c.B}
}

// mixRGB blends a towards b by t in sRGB space.
func mixRGB(a, b palette.RGB, t float64) palette.RGB {
	if t <= 0 {
		return a
	}
	return fromColorful(toColorful(a).BlendRgb(toColorful(b), clamp01(t)))
}

// scaleRGB dims c by keeping its hue and saturation and scaling value.
func scaleRGB(c palette.RGB, k float64) palette.RGB {
	h, s, v := toColorful(c).Hsv()
	return fromColorful(colorful.Hsv(h, s, clamp01(v*k)))
}
