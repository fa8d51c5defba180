package smoothing

import "sort"

// BeatDetector is a forward-only cursor over a sorted list of beat times.
type BeatDetector struct {
	beats []float64
	next  int
}

// Load installs a new beat list and rewinds the cursor.
func (d *BeatDetector) Load(beats []float64) {
	d.beats = beats
	d.next = 0
}

// CheckCrossing advances past every beat at or before t and reports whether
// at least one was passed since the previous call. Moving t backwards never
// rewinds the cursor; use Seek for that.
func (d *BeatDetector) CheckCrossing(t float64) bool {
	start := d.next
	for d.next < len(d.beats) && d.beats[d.next] <= t {
		d.next++
	}
	return d.next > start
}

// Seek repositions the cursor so the next crossing reported is the first
// beat after t.
func (d *BeatDetector) Seek(t float64) {
	d.next = sort.Search(len(d.beats), func(i int) bool { return d.beats[i] > t })
}

// Cursor returns the index of the next beat to be crossed.
func (d *BeatDetector) Cursor() int { return d.next }

// Reset drops the beat list and zeroes the cursor.
func (d *BeatDetector) Reset() {
	d.beats = nil
	d.next = 0
}
