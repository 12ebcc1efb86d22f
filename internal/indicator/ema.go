package indicator

import (
	"fmt"
	"time"
)

// EMA maintains an exponential moving average with alpha = 2/(period+1),
// seeded with the simple average of the first period samples.
type EMA struct {
	period  int
	alpha   float64
	count   int
	seedSum float64
	value   float64
}

// NewEMA builds an exponential moving average over the given period.
func NewEMA(period int) *EMA {
	if period <= 0 {
		period = 1
	}
	return &EMA{period: period, alpha: 2.0 / (float64(period) + 1.0)}
}

func (e *EMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }

func (e *EMA) Update(price, _ float64, _ time.Time) {
	e.UpdateValue(price)
}

// UpdateValue advances the average with a raw sample. MACD reuses this to
// smooth derived series that are not tick prices.
func (e *EMA) UpdateValue(v float64) {
	e.count++
	if e.count < e.period {
		e.seedSum += v
		return
	}
	if e.count == e.period {
		e.value = (e.seedSum + v) / float64(e.period)
		return
	}
	e.value = e.alpha*v + (1-e.alpha)*e.value
}

func (e *EMA) Ready() bool { return e.count >= e.period }

// Value returns the current average. Callers must check Ready first.
func (e *EMA) Value() float64 { return e.value }

func (e *EMA) Reset() {
	e.count = 0
	e.seedSum = 0
	e.value = 0
}
