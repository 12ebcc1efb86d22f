package indicator

import (
	"fmt"
	"math"
	"time"
)

// ATR maintains a Wilder-smoothed average true range. The feed carries bare
// ticks rather than OHLC bars, so the true range degenerates to the absolute
// tick-to-tick price change. This is an approximation of bar-based ATR and
// understates range on sparse streams.
type ATR struct {
	period   int
	prev     float64
	havePrev bool
	trs      int
	accum    float64
	value    float64
}

// NewATR builds an average true range over the given period.
func NewATR(period int) *ATR {
	if period <= 0 {
		period = 1
	}
	return &ATR{period: period}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }

func (a *ATR) Update(price, _ float64, _ time.Time) {
	if !a.havePrev {
		a.prev = price
		a.havePrev = true
		return
	}
	tr := math.Abs(price - a.prev)
	a.prev = price

	a.trs++
	if a.trs < a.period {
		a.accum += tr
		return
	}
	if a.trs == a.period {
		a.value = (a.accum + tr) / float64(a.period)
		return
	}
	p := float64(a.period)
	a.value = (a.value*(p-1) + tr) / p
}

func (a *ATR) Ready() bool { return a.trs >= a.period }

// Value returns the current average range. Callers must check Ready first.
func (a *ATR) Value() float64 { return a.value }

func (a *ATR) Reset() {
	*a = ATR{period: a.period}
}
