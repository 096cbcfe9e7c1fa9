// Package history holds the fixed-capacity yaw sample buffer kept per tracked entity.
package history

// Capacity bounds for a Ring.
const (
	MinCapacity     = 8
	MaxCapacity     = 32
	DefaultCapacity = 16
)

// Ring is a fixed-capacity circular buffer of yaw samples (degrees).
// Once full, each Push overwrites the oldest sample.
type Ring struct {
	samples    []float64
	writeIndex int // next slot to write
	count      int // samples stored, never above len(samples)
}

// New creates a Ring. Capacity is clamped to [MinCapacity, MaxCapacity];
// zero or negative selects DefaultCapacity.
func New(capacity int) *Ring {
	switch {
	case capacity <= 0:
		capacity = DefaultCapacity
	case capacity < MinCapacity:
		capacity = MinCapacity
	case capacity > MaxCapacity:
		capacity = MaxCapacity
	}
	return &Ring{samples: make([]float64, capacity)}
}

// Push stores a sample in the current slot and advances the write index.
func (r *Ring) Push(angle float64) {
	r.samples[r.writeIndex] = angle
	r.writeIndex = (r.writeIndex + 1) % len(r.samples)
	if r.count < len(r.samples) {
		r.count++
	}
}

// Recent returns up to k samples, newest first.
// Recent(1)[0] is the most recently pushed value.
func (r *Ring) Recent(k int) []float64 {
	if k > r.count {
		k = r.count
	}
	if k <= 0 {
		return nil
	}
	c := len(r.samples)
	out := make([]float64, k)
	for i := 0; i < k; i++ {
		out[i] = r.samples[((r.writeIndex-i-1)%c+c)%c]
	}
	return out
}

// Chronological returns up to k of the newest samples, oldest first.
func (r *Ring) Chronological(k int) []float64 {
	out := r.Recent(k)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// At returns the sample n steps back from the newest. At(0) is the newest.
// ok is false when fewer than n+1 samples have been stored.
func (r *Ring) At(n int) (angle float64, ok bool) {
	if n < 0 || n >= r.count {
		return 0, false
	}
	c := len(r.samples)
	return r.samples[((r.writeIndex-n-1)%c+c)%c], true
}

// Len returns the number of stored samples.
func (r *Ring) Len() int { return r.count }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.samples) }

// WriteIndex returns the slot the next Push will write.
func (r *Ring) WriteIndex() int { return r.writeIndex }

// Reset discards all samples, keeping the capacity.
func (r *Ring) Reset() {
	for i := range r.samples {
		r.samples[i] = 0
	}
	r.writeIndex = 0
	r.count = 0
}

// Clone returns an independent copy of r.
func (r *Ring) Clone() *Ring {
	if r == nil {
		return nil
	}
	c := &Ring{
		samples:    make([]float64, len(r.samples)),
		writeIndex: r.writeIndex,
		count:      r.count,
	}
	copy(c.samples, r.samples)
	return c
}
