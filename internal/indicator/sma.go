package indicator

import (
	"fmt"
	"time"

	"signalbot-go/internal/window"
)

// SMA maintains a simple moving average with a running sum over a fixed ring,
// so each update costs O(1) regardless of the period.
type SMA struct {
	period int
	ring   *window.Ring
	sum    float64
}

// NewSMA builds a simple moving average over the given period.
func NewSMA(period int) *SMA {
	if period <= 0 {
		period = 1
	}
	return &SMA{period: period, ring: window.New(period)}
}

func (s *SMA) Name() string { return fmt.Sprintf("SMA(%d)", s.period) }

func (s *SMA) Update(price, _ float64, _ time.Time) {
	if evicted, ok := s.ring.Append(price); ok {
		s.sum -= evicted
	}
	s.sum += price
}

func (s *SMA) Ready() bool { return s.ring.Len() >= s.period }

// Value returns the current average. Callers must check Ready first.
func (s *SMA) Value() float64 {
	if s.ring.Len() == 0 {
		return 0
	}
	return s.sum / float64(s.ring.Len())
}

func (s *SMA) Reset() {
	s.ring.Reset()
	s.sum = 0
}
