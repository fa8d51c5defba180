package audio

// ring is a fixed-size mono sample history. It is not safe for concurrent
// use; Capture guards it with its own lock.
type ring struct {
	buf    []float32
	index  int
	filled bool
	total  int64
}

func newRing(size int) *ring {
	return &ring{buf: make([]float32, size)}
}

func (r *ring) write(in []float32) {
	r.total += int64(len(in))
	if len(in) == 0 {
		return
	}
	size := len(r.buf)
	if len(in) >= size {
		copy(r.buf, in[len(in)-size:])
		r.index = 0
		r.filled = true
		return
	}

	n := copy(r.buf[r.index:], in)
	if n < len(in) {
		copy(r.buf, in[n:])
	}
	next := r.index + len(in)
	if next >= size {
		r.filled = true
		next -= size
	}
	r.index = next
}

// snapshot copies the history oldest-first into dst, growing it if needed.
// Before the ring has wrapped, the unwritten head is zeros.
func (r *ring) snapshot(dst []float32) []float32 {
	size := len(r.buf)
	if cap(dst) < size {
		dst = make([]float32, size)
	}
	dst = dst[:size]
	if !r.filled {
		n := copy(dst[size-r.index:], r.buf[:r.index])
		clear(dst[:size-n])
		return dst
	}
	n := copy(dst, r.buf[r.index:])
	copy(dst[n:], r.buf[:r.index])
	return dst
}

// written is the total number of samples ever written.
func (r *ring) written() int64 { return r.total }

// downmix averages interleaved channels into dst and returns it.
func downmix(dst, in []float32, channels int) []float32 {
	if channels <= 1 {
		return append(dst[:0], in...)
	}
	frames := len(in) / channels
	dst = dst[:0]
	for i := 0; i < frames; i++ {
		sum := float32(0)
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			sum += in[base+ch]
		}
		dst = append(dst, sum/float32(channels))
	}
	return dst
}
