// Package window provides fixed-capacity rolling sample storage for indicator lookbacks.
package window

import "errors"

// ErrInsufficientHistory is returned when a snapshot asks for more samples than received so far.
var ErrInsufficientHistory = errors.New("insufficient history")

// Ring is a fixed-capacity FIFO of float64 samples. Once full, each append
// evicts the oldest sample. Capacity never changes after construction.
type Ring struct {
	buf  []float64
	head int // index of the oldest sample
	size int
}

// New builds a ring holding at most capacity samples. Capacity must be positive.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Append stores a sample, evicting the oldest once capacity is exceeded.
// It returns the evicted sample and whether an eviction happened.
func (r *Ring) Append(v float64) (evicted float64, ok bool) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
		return 0, false
	}
	evicted = r.buf[r.head]
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	return evicted, true
}

// Len reports how many samples are currently held.
func (r *Ring) Len() int { return r.size }

// Cap reports the fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// At returns the i-th sample, oldest first. The index must be in [0, Len).
func (r *Ring) At(i int) float64 {
	return r.buf[(r.head+i)%len(r.buf)]
}

// Last returns the most recent sample, if any.
func (r *Ring) Last() (float64, bool) {
	if r.size == 0 {
		return 0, false
	}
	return r.At(r.size - 1), true
}

// Snapshot copies the most recent lookback samples, oldest first.
// Callers requesting more history than received get ErrInsufficientHistory.
func (r *Ring) Snapshot(lookback int) ([]float64, error) {
	if lookback <= 0 || lookback > len(r.buf) || lookback > r.size {
		return nil, ErrInsufficientHistory
	}
	out := make([]float64, lookback)
	start := r.size - lookback
	for i := 0; i < lookback; i++ {
		out[i] = r.At(start + i)
	}
	return out, nil
}

// Reset drops every held sample while keeping the capacity.
func (r *Ring) Reset() {
	r.head = 0
	r.size = 0
}
