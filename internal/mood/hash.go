package mood

import (
	"hash/fnv"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/guidoenr/chromafield/internal/palette"
)

// HashPalette derives a palette from a track identity string. The same
// identity always yields the same palette.
func HashPalette(identity string) palette.Palette {
	h := fnv.New64a()
	_, _ = h.Write([]byte(identity))
	rng := splitmix{state: h.Sum64()}

	hue := rng.float()
	topSat := 0.5 + rng.float()*0.4
	topVal := 0.75 + rng.float()*0.2
	bottomShift := 0.05 + rng.float()*0.12
	bottomVal := 0.18 + rng.float()*0.2
	accentSat := 0.3 + rng.float()*0.4

	top := hsv(hue, topSat, topVal)
	bottom := hsv(hue+bottomShift, math.Min(1, topSat+0.1), bottomVal)
	accent := hsv(hue+0.5, accentSat, 0.95)

	return palette.Palette{
		Colors:     [3]palette.RGB{top, bottom, accent},
		Speed:      0.6 + rng.float()*0.8,
		Turbulence: 0.2 + rng.float()*0.6,
		PulseRate:  0.8 + rng.float()*0.6,
		OrbCount:   2 + int(rng.float()*5),
		Brightness: 0.85 + rng.float()*0.3,
	}
}

// Identity joins title and artist the way HashPalette expects.
func Identity(title, artist string) string {
	return normalize(title) + " - " + normalize(artist)
}

func hsv(h, s, v float64) palette.RGB {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	c := colorful.Hsv(h*360, s, v)
	return palette.RGB{R: c.R, G: c.G, B: c.B}
}

// splitmix is a splitmix64 sequence.
type splitmix struct {
	state uint64
}

func (s *splitmix) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// float returns a value in [0, 1).
func (s *splitmix) float() float64 {
	return float64(s.next()>>11) / (1 << 53)
}
