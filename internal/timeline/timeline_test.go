package timeline

import (
	"math"
	"testing"
)

func loaded(b Bundle) *Timeline {
	tl := New()
	tl.Load(b)
	return tl
}

func TestSampleAtEmptyStreamIsZero(t *testing.T) {
	tl := New()
	for _, q := range []float64{-1, 0, 3.5, 1e9} {
		if got := tl.SampleAt(Loudness, q); got != 0 {
			t.Fatalf("SampleAt(%f) on empty stream = %f, want 0", q, got)
		}
		if got := tl.BandsAt(q); got != (Bands{}) {
			t.Fatalf("BandsAt(%f) on empty stream = %v, want zero", q, got)
		}
	}
}

func TestSampleAtInterpolates(t *testing.T) {
	tl := loaded(Bundle{Loudness: []Sample{{T: 0, V: 0.2}, {T: 1, V: 0.6}, {T: 2, V: 0.4}}})

	cases := []struct {
		t    float64
		want float64
	}{
		{0, 0.2},
		{0.5, 0.4},
		{1, 0.6},
		{1.5, 0.5},
		{2, 0.4},
	}
	for _, c := range cases {
		if got := tl.SampleAt(Loudness, c.t); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("SampleAt(%f)=%f want=%f", c.t, got, c.want)
		}
	}
}

func TestSampleAtClampsOutsideStream(t *testing.T) {
	tl := loaded(Bundle{Bass: []Sample{{T: 1, V: 0.3}, {T: 2, V: 0.9}}})
	if got := tl.SampleAt(Bass, 50); got != 0.9 {
		t.Fatalf("past the end: got=%f want=0.9", got)
	}
	if got := tl.SampleAt(Bass, 0.2); got != 0.3 {
		t.Fatalf("before the start: got=%f want=0.3", got)
	}
}

func TestSampleAtStaysInsideBracket(t *testing.T) {
	samples := []Sample{{T: 0, V: 0.1}, {T: 0.25, V: 0.9}, {T: 0.5, V: 0.3}, {T: 0.75, V: 0.3}, {T: 1, V: 0.7}}
	tl := loaded(Bundle{Centroid: samples})

	prev := tl.SampleAt(Centroid, 0)
	const step = 0.001
	for q := step; q <= 1; q += step {
		got := tl.SampleAt(Centroid, q)
		i := int(q / 0.25)
		if i >= len(samples)-1 {
			i = len(samples) - 2
		}
		lo := math.Min(samples[i].V, samples[i+1].V)
		hi := math.Max(samples[i].V, samples[i+1].V)
		if got < lo-1e-12 || got > hi+1e-12 {
			t.Fatalf("SampleAt(%f)=%f outside [%f, %f]", q, got, lo, hi)
		}
		// slope is at most 0.8/0.25, so one step can move at most ~0.0032
		if math.Abs(got-prev) > 0.004 {
			t.Fatalf("discontinuity at %f: %f -> %f", q, prev, got)
		}
		prev = got
	}
}

func TestSampleAtDuplicateTimestamps(t *testing.T) {
	tl := loaded(Bundle{Loudness: []Sample{{T: 1, V: 0.2}, {T: 1, V: 0.8}, {T: 2, V: 0.4}}})
	if got := tl.SampleAt(Loudness, 1); got != 0.8 {
		t.Fatalf("duplicate timestamp: got=%f want=0.8", got)
	}
	if got := tl.SampleAt(Loudness, 1.5); math.Abs(got-0.6) > 1e-12 {
		t.Fatalf("after duplicate: got=%f want=0.6", got)
	}
}

func TestBandsShareBracket(t *testing.T) {
	var a, b Bands
	for i := range a {
		a[i] = float64(i) / 10
		b[i] = 1 - float64(i)/10
	}
	tl := loaded(Bundle{MelBands: []BandSample{{T: 0, V: a}, {T: 2, V: b}}})
	got := tl.BandsAt(0.5)
	for i := range got {
		want := a[i] + (b[i]-a[i])*0.25
		if math.Abs(got[i]-want) > 1e-12 {
			t.Fatalf("band %d: got=%f want=%f", i, got[i], want)
		}
	}
	if tl.BandsAt(10) != b {
		t.Fatalf("expected last band sample past the end")
	}
}

func TestLoadDropsMalformedStreams(t *testing.T) {
	tl := loaded(Bundle{
		Beats:    []float64{0.5, 1.0},
		Loudness: []Sample{{T: 2, V: 0.5}, {T: 1, V: 0.5}},
		Bass:     []Sample{{T: 0, V: math.NaN()}},
		Centroid: []Sample{{T: 0, V: 3}},
	})
	if tl.Len(Loudness) != 0 {
		t.Fatalf("unordered loudness should be dropped")
	}
	if tl.Len(Bass) != 0 {
		t.Fatalf("NaN bass should be dropped")
	}
	if got := tl.SampleAt(Centroid, 0); got != 1 {
		t.Fatalf("centroid should be clamped to 1, got %f", got)
	}
	if len(tl.Beats()) != 2 {
		t.Fatalf("beats should survive partial data, got %v", tl.Beats())
	}
	if len(tl.Dropped()) != 2 {
		t.Fatalf("dropped=%v want loudness and bass", tl.Dropped())
	}
}

func TestLoadDefaultsTempo(t *testing.T) {
	if got := loaded(Bundle{}).Tempo(); got != DefaultTempo {
		t.Fatalf("tempo=%f want=%f", got, DefaultTempo)
	}
	if got := loaded(Bundle{Tempo: -4}).Tempo(); got != DefaultTempo {
		t.Fatalf("negative tempo should default, got %f", got)
	}
	if got := loaded(Bundle{Tempo: 174}).Tempo(); got != 174 {
		t.Fatalf("tempo=%f want=174", got)
	}
}

func TestResetEmptiesStreams(t *testing.T) {
	tl := loaded(Bundle{Tempo: 90, Beats: []float64{1}, Bass: []Sample{{T: 0, V: 1}}})
	tl.Reset()
	if !tl.Empty() {
		t.Fatalf("expected empty timeline after reset")
	}
	if tl.Tempo() != DefaultTempo {
		t.Fatalf("tempo should reset to default")
	}
}

func TestDecodeToleratesBadStreams(t *testing.T) {
	doc := []byte(`{
		"tempo": 96,
		"beats": [0.5, 1.0, 1.5],
		"loudness": "not a stream",
		"bass": [{"t": 0, "v": 0.25}, {"t": 1, "v": 0.75}],
		"melbands": [{"t": 0, "v": [1, 2, 3]}]
	}`)
	b, err := Decode(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Tempo != 96 || len(b.Beats) != 3 || len(b.Bass) != 2 {
		t.Fatalf("unexpected bundle: %+v", b)
	}
	if b.Loudness != nil || b.MelBands != nil {
		t.Fatalf("malformed streams should be empty: %+v", b)
	}
	if len(b.Dropped) != 2 {
		t.Fatalf("dropped=%v want loudness and melbands", b.Dropped)
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	if _, err := Decode([]byte(`[1, 2, 3]`)); err == nil {
		t.Fatalf("expected error for non-object document")
	}
}

func TestDuration(t *testing.T) {
	tl := New()
	if tl.Duration() != 0 {
		t.Fatalf("empty timeline duration=%f", tl.Duration())
	}
	tl.Load(Bundle{
		Beats:    []float64{0.5, 31},
		Loudness: []Sample{{T: 0, V: 0.1}, {T: 30, V: 0.2}},
		Bass:     []Sample{{T: 0, V: 0.1}, {T: 42, V: 0.2}},
	})
	if tl.Duration() != 42 {
		t.Fatalf("duration=%f want=42", tl.Duration())
	}
}
