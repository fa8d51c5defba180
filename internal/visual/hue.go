package visual

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/guidoenr/chromafield/internal/palette"
)

// rgbToYIQ is the NTSC transform. Y is luma; rotating (I, Q) about the Y
// axis shifts hue while leaving luma untouched.
var rgbToYIQ = mat.NewDense(3, 3, []float64{
	0.299, 0.587, 0.114,
	0.595716, -0.274453, -0.321263,
	0.211456, -0.522591, 0.311135,
})

var yiqToRGB = inverse(rgbToYIQ)

func inverse(m mat.Matrix) *mat.Dense {
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		panic("visual: YIQ matrix is singular: " + err.Error())
	}
	return &inv
}

// hueMatrix returns the RGB->RGB matrix rotating hue by amount turns.
func hueMatrix(amount float64) *mat.Dense {
	sin, cos := math.Sincos(amount * 2 * math.Pi)
	rot := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cos, -sin,
		0, sin, cos,
	})
	var yiq, out mat.Dense
	yiq.Mul(rot, rgbToYIQ)
	out.Mul(yiqToRGB, &yiq)
	return &out
}

// RotateHue shifts c by amount turns while preserving its luma. Channels are
// clamped to 0..1 afterwards.
func RotateHue(c palette.RGB, amount float64) palette.RGB {
	if amount == 0 || math.IsNaN(amount) {
		return c
	}
	m := hueMatrix(amount)
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{c.R, c.G, c.B}))
	return palette.RGB{
		R: clamp01(out.AtVec(0)),
		G: clamp01(out.AtVec(1)),
		B: clamp01(out.AtVec(2)),
	}
}

// Luma returns the Y component used by RotateHue.
func Luma(c palette.RGB) float64 {
	return rgbToYIQ.At(0, 0)*c.R + rgbToYIQ.At(0, 1)*c.G + rgbToYIQ.At(0, 2)*c.B
}
