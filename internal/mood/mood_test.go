package mood

import (
	"math"
	"testing"

	"github.com/guidoenr/chromafield/internal/palette"
)

func rule(t *testing.T, name string) palette.Palette {
	t.Helper()
	for _, r := range DefaultRules {
		if r.Name == name {
			return r.Palette
		}
	}
	t.Fatalf("no rule named %q", name)
	return palette.Palette{}
}

func TestResolveSingleMatchIsExact(t *testing.T) {
	r := NewResolver(nil)
	got, ok := r.Resolve([]string{"melancholic"})
	if !ok {
		t.Fatalf("expected a match for melancholic")
	}
	if want := rule(t, "sad"); got != want {
		t.Fatalf("got %+v want sad palette %+v", got, want)
	}
}

func TestResolveEqualHitsIsMean(t *testing.T) {
	r := NewResolver(nil)
	got, matches := r.Explain([]string{"happy", "sad"})
	if len(matches) != 2 {
		t.Fatalf("matches=%+v want happy and sad", matches)
	}
	a, b := rule(t, "happy"), rule(t, "sad")
	mean := func(x, y float64) float64 { return (x + y) / 2 }

	for c := range got.Colors {
		if got.Colors[c].R != mean(a.Colors[c].R, b.Colors[c].R) ||
			got.Colors[c].G != mean(a.Colors[c].G, b.Colors[c].G) ||
			got.Colors[c].B != mean(a.Colors[c].B, b.Colors[c].B) {
			t.Fatalf("color %d=%+v is not the mean of %+v and %+v", c, got.Colors[c], a.Colors[c], b.Colors[c])
		}
	}
	if got.Speed != mean(a.Speed, b.Speed) ||
		got.Turbulence != mean(a.Turbulence, b.Turbulence) ||
		got.PulseRate != mean(a.PulseRate, b.PulseRate) ||
		got.Brightness != mean(a.Brightness, b.Brightness) {
		t.Fatalf("scalar fields are not the mean: %+v", got)
	}
	if want := int(math.Round(mean(float64(a.OrbCount), float64(b.OrbCount)))); got.OrbCount != want {
		t.Fatalf("orbCount=%d want=%d", got.OrbCount, want)
	}
}

func TestResolveBidirectionalSubstring(t *testing.T) {
	r := NewResolver([]Rule{
		{Name: "calm", Keywords: []string{"chill"}, Palette: rule(t, "calm")},
	})
	if _, ok := r.Resolve([]string{"Chillwave"}); !ok {
		t.Fatalf("tag containing a keyword should match")
	}
	if _, ok := r.Resolve([]string{"chi"}); !ok {
		t.Fatalf("keyword containing a tag should match")
	}
}

func TestResolveWeightsByHits(t *testing.T) {
	r := NewResolver(nil)
	_, matches := r.Explain([]string{"dark", "brooding", "happy"})
	if len(matches) != 2 {
		t.Fatalf("matches=%+v", matches)
	}
	for _, m := range matches {
		switch m.Rule {
		case "dark":
			if m.Hits != 2 || math.Abs(m.Weight-2.0/3.0) > 1e-12 {
				t.Fatalf("dark match=%+v", m)
			}
		case "happy":
			if m.Hits != 1 || math.Abs(m.Weight-1.0/3.0) > 1e-12 {
				t.Fatalf("happy match=%+v", m)
			}
		default:
			t.Fatalf("unexpected rule %q", m.Rule)
		}
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	forward := NewResolver(DefaultRules)
	reversed := make([]Rule, len(DefaultRules))
	for i, r := range DefaultRules {
		reversed[len(reversed)-1-i] = r
	}
	backward := NewResolver(reversed)

	tags := []string{"sad", "dreamy", "ambient", "party"}
	a, _ := forward.Resolve(tags)
	b, _ := backward.Resolve(tags)
	if a.OrbCount != b.OrbCount || math.Abs(a.Speed-b.Speed) > 1e-12 || math.Abs(a.Colors[0].R-b.Colors[0].R) > 1e-12 {
		t.Fatalf("rule order changed the result: %+v vs %+v", a, b)
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := NewResolver(nil)
	for _, tags := range [][]string{nil, {}, {"   "}, {"zzzz"}} {
		if _, ok := r.Resolve(tags); ok {
			t.Fatalf("tags %q should not match", tags)
		}
	}
}

func TestHashPaletteDeterministic(t *testing.T) {
	id := Identity("Teardrop", "Massive Attack")
	if HashPalette(id) != HashPalette(id) {
		t.Fatalf("HashPalette must be pure")
	}
}

func TestHashPaletteVariesHue(t *testing.T) {
	ids := []string{
		Identity("Teardrop", "Massive Attack"),
		Identity("Windowlicker", "Aphex Twin"),
		Identity("Heroes", "David Bowie"),
		Identity("Hyperballad", "Bjork"),
	}
	seen := map[palette.RGB]string{}
	for _, id := range ids {
		top := HashPalette(id).Colors[0]
		if other, dup := seen[top]; dup {
			t.Fatalf("%q and %q share top colour %+v", id, other, top)
		}
		seen[top] = id
	}
}

func TestHashPaletteRanges(t *testing.T) {
	p := HashPalette("anything at all")
	if p.OrbCount < 2 || p.OrbCount > 6 {
		t.Fatalf("orbCount=%d out of range", p.OrbCount)
	}
	for _, c := range p.Colors {
		for _, v := range []float64{c.R, c.G, c.B} {
			if v < 0 || v > 1 {
				t.Fatalf("colour channel %f out of range", v)
			}
		}
	}
}
