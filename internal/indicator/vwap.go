package indicator

import (
	"fmt"
	"time"
)

// VWAP maintains cumulative price×volume over cumulative volume, reset at a
// configurable session boundary (daily by default). Sessions are aligned to
// UTC wall-clock buckets of the tick timestamp, so replays are deterministic.
type VWAP struct {
	session time.Duration
	bucket  int64
	cumPV   float64
	cumV    float64
}

// NewVWAP builds a session VWAP. A non-positive session disables resets.
func NewVWAP(sessionSecs int) *VWAP {
	return &VWAP{session: time.Duration(sessionSecs) * time.Second, bucket: -1}
}

func (v *VWAP) Name() string { return fmt.Sprintf("VWAP(%s)", v.session) }

func (v *VWAP) Update(price, volume float64, ts time.Time) {
	if v.session > 0 {
		bucket := ts.UnixNano() / int64(v.session)
		if v.bucket >= 0 && bucket != v.bucket {
			v.cumPV = 0
			v.cumV = 0
		}
		v.bucket = bucket
	}
	if volume <= 0 {
		return
	}
	v.cumPV += price * volume
	v.cumV += volume
}

// Ready reports whether any volume has been observed this session.
func (v *VWAP) Ready() bool { return v.cumV > 0 }

// Value returns the current session VWAP. Callers must check Ready first.
func (v *VWAP) Value() float64 {
	if v.cumV == 0 {
		return 0
	}
	return v.cumPV / v.cumV
}

func (v *VWAP) Reset() {
	v.bucket = -1
	v.cumPV = 0
	v.cumV = 0
}
