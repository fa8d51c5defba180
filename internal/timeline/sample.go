package timeline

import (
	"math"
	"sort"
)

// BandCount is the number of mel bands carried by every band sample.
const BandCount = 8

// Bands holds one energy value per mel band, each in 0..1.
type Bands [BandCount]float64

// Sample is a scalar feature value at time T (seconds).
type Sample struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

// BandSample is a mel-band vector at time T (seconds).
type BandSample struct {
	T float64 `json:"t"`
	V Bands   `json:"v"`
}

// bracket locates the samples surrounding t in a series of n samples whose
// times are returned by at. lo is the rightmost sample with at(lo) <= t and
// hi is the one after it, or lo again at the end of the series. A query
// before the first sample clamps to the first sample.
func bracket(n int, at func(int) float64, t float64) (lo, hi int, alpha float64) {
	lo = sort.Search(n, func(i int) bool { return at(i) > t }) - 1
	if lo < 0 {
		return 0, 0, 0
	}
	hi = lo + 1
	if hi >= n {
		return lo, lo, 0
	}
	ta, tb := at(lo), at(hi)
	if ta == tb {
		return lo, lo, 0
	}
	return lo, hi, clamp((t-ta)/(tb-ta), 0, 1)
}

// mix interpolates between a and b and keeps the result inside [a, b] so
// float rounding can never step outside the bracket.
func mix(a, b, alpha float64) float64 {
	if a == b || alpha == 0 {
		return a
	}
	if alpha == 1 {
		return b
	}
	v := a + (b-a)*alpha
	return clamp(v, math.Min(a, b), math.Max(a, b))
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
