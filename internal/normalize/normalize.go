// Package normalize validates and time-orders raw ticks before they reach symbol state.
package normalize

import (
	"time"

	"signalbot-go/internal/signal"
)

// Result classifies the outcome of normalizing one raw tick.
type Result int

const (
	// OK means the tick was accepted and the watermark advanced.
	OK Result = iota
	// Stale means the tick timestamp fell behind watermark minus the lateness tolerance.
	Stale
	// Duplicate means a tick with the same timestamp was already seen for this symbol.
	Duplicate
)

// Normalizer holds the per-symbol watermark, a bounded recent-timestamp set for
// dedup, and the last known volume for carry-forward. One instance per symbol.
type Normalizer struct {
	tolerance  time.Duration
	retention  int
	watermark  time.Time
	seen       map[int64]struct{}
	order      []int64 // FIFO of seen keys, oldest first
	lastVolume float64
}

// New builds a normalizer with the given lateness tolerance and the number of
// recent timestamps remembered for duplicate detection.
func New(tolerance time.Duration, retention int) *Normalizer {
	if retention <= 0 {
		retention = 256
	}
	return &Normalizer{
		tolerance: tolerance,
		retention: retention,
		seen:      make(map[int64]struct{}, retention),
	}
}

// Accept validates a raw tick. On success it returns the normalized tick with
// missing volume filled via last-known-value carry-forward, and advances the
// watermark. State is only mutated on success.
func (n *Normalizer) Accept(t signal.Tick) (signal.Tick, Result) {
	if !n.watermark.IsZero() && t.Ts.Before(n.watermark.Add(-n.tolerance)) {
		return t, Stale
	}
	key := t.Ts.UnixNano()
	if _, dup := n.seen[key]; dup {
		return t, Duplicate
	}

	n.seen[key] = struct{}{}
	n.order = append(n.order, key)
	if len(n.order) > n.retention {
		delete(n.seen, n.order[0])
		n.order = n.order[1:]
	}

	if t.Volume <= 0 {
		t.Volume = n.lastVolume
	} else {
		n.lastVolume = t.Volume
	}
	if t.Ts.After(n.watermark) {
		n.watermark = t.Ts
	}
	return t, OK
}

// Watermark returns the latest accepted timestamp for the symbol.
func (n *Normalizer) Watermark() time.Time { return n.watermark }
