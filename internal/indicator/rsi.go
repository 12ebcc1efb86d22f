package indicator

import (
	"fmt"
	"time"
)

// RSI maintains Wilder-smoothed average gain and loss over price deltas.
// Output is in [0,100]; a flat series (no gains, no losses) maps to 50.
type RSI struct {
	period    int
	prev      float64
	havePrev  bool
	deltas    int
	gainAccum float64
	lossAccum float64
	avgGain   float64
	avgLoss   float64
}

// NewRSI builds a relative strength index over the given period.
func NewRSI(period int) *RSI {
	if period <= 0 {
		period = 1
	}
	return &RSI{period: period}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }

func (r *RSI) Update(price, _ float64, _ time.Time) {
	if !r.havePrev {
		r.prev = price
		r.havePrev = true
		return
	}
	delta := price - r.prev
	r.prev = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	r.deltas++
	if r.deltas < r.period {
		r.gainAccum += gain
		r.lossAccum += loss
		return
	}
	if r.deltas == r.period {
		r.avgGain = (r.gainAccum + gain) / float64(r.period)
		r.avgLoss = (r.lossAccum + loss) / float64(r.period)
		return
	}
	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
}

func (r *RSI) Ready() bool { return r.deltas >= r.period }

// Value returns the current index. Callers must check Ready first.
func (r *RSI) Value() float64 {
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - (100 / (1 + rs))
}

func (r *RSI) Reset() {
	*r = RSI{period: r.period}
}
