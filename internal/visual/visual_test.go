package visual

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/guidoenr/chromafield/internal/palette"
	"github.com/guidoenr/chromafield/internal/smoothing"
)

func TestIdleDecayMonotonicToZero(t *testing.T) {
	in := NewIntegrator(DefaultConfig(), palette.Default())
	in.TriggerBeat()
	in.state.BassFlow = 0.9

	prev := in.State()
	for i := 0; i < 2000; i++ {
		s := in.Advance(0, Input{Playing: false, Palette: palette.Default()})
		for _, pair := range [][2]float64{{s.Pulse, prev.Pulse}, {s.Pulse2, prev.Pulse2}, {s.BassFlow, prev.BassFlow}} {
			if pair[0] < 0 {
				t.Fatalf("step %d: value went negative: %f", i, pair[0])
			}
			if pair[0] > pair[1] {
				t.Fatalf("step %d: value increased %f -> %f", i, pair[1], pair[0])
			}
		}
		prev = s
	}
	if prev.Pulse != 0 || prev.Pulse2 != 0 || prev.BassFlow != 0 {
		t.Fatalf("expected full decay to exact zero, got %+v", prev)
	}
	if math.Abs(prev.Intensity-1) > 1e-9 {
		t.Fatalf("idle intensity should settle at 1, got %f", prev.Intensity)
	}
}

func TestDecayIsFrameRateIndependent(t *testing.T) {
	run := func(fps int) float64 {
		in := NewIntegrator(DefaultConfig(), palette.Default())
		in.TriggerBeat()
		dt := 1.0 / float64(fps)
		for i := 0; i < fps/4; i++ {
			in.Advance(dt, Input{Playing: true, Palette: palette.Default()})
		}
		return in.State().Pulse
	}
	a, b := run(60), run(144)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("quarter second of decay differs: 60fps=%f 144fps=%f", a, b)
	}
}

func TestSecondaryPulseDecaysFaster(t *testing.T) {
	in := NewIntegrator(DefaultConfig(), palette.Default())
	in.TriggerBeat()
	s0 := in.State()
	s := in.Advance(NominalDelta, Input{Playing: true, Palette: palette.Default()})
	if s.Pulse2/s0.Pulse2 >= s.Pulse/s0.Pulse {
		t.Fatalf("pulse2 should lose a larger fraction per frame: %+v", s)
	}
}

func TestTriggerBeatIdempotent(t *testing.T) {
	in := NewIntegrator(DefaultConfig(), palette.Default())
	in.Advance(NominalDelta, Input{Playing: true, Palette: palette.Default()})
	in.TriggerBeat()
	once := in.State()
	in.TriggerBeat()
	in.TriggerBeat()
	if in.State() != once {
		t.Fatalf("repeated TriggerBeat changed state")
	}
	cfg := DefaultConfig()
	if once.Pulse != cfg.BeatPulse || once.Pulse2 != cfg.BeatPulse2 {
		t.Fatalf("pulses=%f,%f", once.Pulse, once.Pulse2)
	}
}

func TestPlayingPhaseAndIntensity(t *testing.T) {
	in := NewIntegrator(DefaultConfig(), palette.Default())
	feats := smoothing.Features{Volume: 0.5, Bass: 0.5}
	var s State
	for i := 0; i < 600; i++ {
		s = in.Advance(NominalDelta, Input{Playing: true, Features: feats, Palette: palette.Default(), Tempo: 120})
	}
	wantPhase := 10 * (1 + 0.5*DefaultConfig().PhaseBassGain)
	if math.Abs(s.Phase-wantPhase) > 1e-6 {
		t.Fatalf("phase=%f want=%f", s.Phase, wantPhase)
	}
	if math.Abs(s.Intensity-(0.70+0.5*1.2)) > 1e-6 {
		t.Fatalf("intensity=%f want=1.3", s.Intensity)
	}
	if math.Abs(s.BassFlow-0.5) > 1e-6 {
		t.Fatalf("bassFlow=%f want=0.5", s.BassFlow)
	}
}

func TestPhaseScalesWithTempo(t *testing.T) {
	step := func(tempo float64) float64 {
		in := NewIntegrator(DefaultConfig(), palette.Default())
		return in.Advance(NominalDelta, Input{Playing: true, Palette: palette.Default(), Tempo: tempo}).Phase
	}
	if math.Abs(step(240)-2*step(120)) > 1e-12 {
		t.Fatalf("phase rate should be proportional to tempo")
	}
	if step(0) != step(120) {
		t.Fatalf("missing tempo should behave like 120 BPM")
	}
}

func TestDeltaClamped(t *testing.T) {
	a := NewIntegrator(DefaultConfig(), palette.Default())
	b := NewIntegrator(DefaultConfig(), palette.Default())
	in := Input{Playing: true, Palette: palette.Default(), Tempo: 120}
	if a.Advance(10, in).Phase != b.Advance(MaxDelta, in).Phase {
		t.Fatalf("large dt should be clamped to MaxDelta")
	}
	c := NewIntegrator(DefaultConfig(), palette.Default())
	if got := c.Advance(-1, in).Phase; math.Abs(got-NominalDelta) > 1e-12 {
		t.Fatalf("negative dt should count as a nominal frame, phase=%f", got)
	}
}

func TestClampDelta(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, NominalDelta},
		{-0.2, NominalDelta},
		{math.NaN(), NominalDelta},
		{math.Inf(1), NominalDelta},
		{0.01, 0.01},
		{1, MaxDelta},
	}
	for _, c := range cases {
		if got := ClampDelta(c.in); got != c.want {
			t.Errorf("ClampDelta(%v)=%v want=%v", c.in, got, c.want)
		}
	}
}

func TestHueRotationFollowsCentroid(t *testing.T) {
	p := palette.Default()
	in := NewIntegrator(DefaultConfig(), p)
	s := in.Advance(NominalDelta, Input{Playing: true, Palette: p, Features: smoothing.Features{Centroid: 0}})
	if s.TopColor != p.Colors[0] || s.BottomColor != p.Colors[1] {
		t.Fatalf("zero centroid must leave base colours untouched")
	}

	s = in.Advance(NominalDelta, Input{Playing: true, Palette: p, Features: smoothing.Features{Centroid: 1}})
	want := RotateHue(p.Colors[0], DefaultConfig().HueShift)
	if s.TopColor != want {
		t.Fatalf("top colour=%+v want=%+v", s.TopColor, want)
	}
	if s.BottomColor != RotateHue(p.Colors[1], DefaultConfig().HueShift*0.4) {
		t.Fatalf("bottom colour should rotate at 40%% of the top rate")
	}
}

func TestRotateHuePreservesLuma(t *testing.T) {
	c := palette.RGB{R: 0.45, G: 0.5, B: 0.55}
	for _, amount := range []float64{0.05, 0.1, 0.25, 0.5} {
		got := RotateHue(c, amount)
		if math.Abs(Luma(got)-Luma(c)) > 1e-9 {
			t.Fatalf("amount %f: luma %f -> %f", amount, Luma(c), Luma(got))
		}
	}
	full := RotateHue(c, 1)
	if math.Abs(full.R-c.R) > 1e-9 || math.Abs(full.G-c.G) > 1e-9 || math.Abs(full.B-c.B) > 1e-9 {
		t.Fatalf("a full turn should return the input, got %+v", full)
	}
}

func TestHueMatrixRoundTrip(t *testing.T) {
	var id mat.Dense
	id.Mul(yiqToRGB, rgbToYIQ)
	if !mat.EqualApprox(&id, mat.NewDiagDense(3, []float64{1, 1, 1}), 1e-9) {
		t.Fatalf("YIQ inverse is off:\n%v", mat.Formatted(&id))
	}
	if !mat.EqualApprox(hueMatrix(0), mat.NewDiagDense(3, []float64{1, 1, 1}), 1e-9) {
		t.Fatalf("zero rotation should be the identity")
	}
}

func TestReset(t *testing.T) {
	p := palette.Default()
	in := NewIntegrator(DefaultConfig(), p)
	in.TriggerBeat()
	for i := 0; i < 10; i++ {
		in.Advance(NominalDelta, Input{Playing: true, Palette: p, Features: smoothing.Features{Bass: 1, Centroid: 0.5}})
	}
	in.Reset(p)
	if in.State() != InitialState(p) {
		t.Fatalf("reset state=%+v", in.State())
	}
}
