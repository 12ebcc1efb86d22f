package indicator

import (
	"fmt"
	"math"
	"time"

	"signalbot-go/internal/window"
)

// Bollinger maintains SMA ± k·stddev using running sums of samples and squared
// samples over a fixed ring. Variance is clamped at zero to absorb the small
// negative values floating-point cancellation can produce on flat series.
type Bollinger struct {
	period int
	k      float64
	ring   *window.Ring
	sum    float64
	sumSq  float64
}

// NewBollinger builds Bollinger Bands over the given period and band width multiplier.
func NewBollinger(period int, k float64) *Bollinger {
	if period <= 0 {
		period = 1
	}
	if k <= 0 {
		k = 2.0
	}
	return &Bollinger{period: period, k: k, ring: window.New(period)}
}

func (b *Bollinger) Name() string { return fmt.Sprintf("BOLL(%d,%.1f)", b.period, b.k) }

func (b *Bollinger) Update(price, _ float64, _ time.Time) {
	if evicted, ok := b.ring.Append(price); ok {
		b.sum -= evicted
		b.sumSq -= evicted * evicted
	}
	b.sum += price
	b.sumSq += price * price
}

func (b *Bollinger) Ready() bool { return b.ring.Len() >= b.period }

// Value returns the current bands. Callers must check Ready first.
func (b *Bollinger) Value() BandsPoint {
	n := float64(b.ring.Len())
	if n == 0 {
		return BandsPoint{}
	}
	mid := b.sum / n
	variance := b.sumSq/n - mid*mid
	if variance < 0 {
		variance = 0
	}
	sd := math.Sqrt(variance)
	return BandsPoint{
		Upper:  mid + b.k*sd,
		Middle: mid,
		Lower:  mid - b.k*sd,
		Ready:  b.Ready(),
	}
}

func (b *Bollinger) Reset() {
	b.ring.Reset()
	b.sum = 0
	b.sumSq = 0
}
