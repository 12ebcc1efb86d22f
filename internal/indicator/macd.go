package indicator

import (
	"fmt"
	"time"
)

// MACD maintains fast and slow price EMAs plus a signal-line EMA over the
// difference. The histogram is line minus signal.
type MACD struct {
	fast    *EMA
	slow    *EMA
	sig     *EMA
	fastN   int
	slowN   int
	signalN int
}

// NewMACD builds a MACD with the given fast, slow, and signal periods.
func NewMACD(fast, slow, sig int) *MACD {
	return &MACD{
		fast:    NewEMA(fast),
		slow:    NewEMA(slow),
		sig:     NewEMA(sig),
		fastN:   fast,
		slowN:   slow,
		signalN: sig,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fastN, m.slowN, m.signalN)
}

func (m *MACD) Update(price, volume float64, ts time.Time) {
	m.fast.Update(price, volume, ts)
	m.slow.Update(price, volume, ts)
	// The signal line only starts smoothing once the slow leg produces a
	// defined MACD value, so its warm-up counts defined samples only.
	if m.slow.Ready() {
		m.sig.UpdateValue(m.fast.Value() - m.slow.Value())
	}
}

func (m *MACD) Ready() bool { return m.slow.Ready() && m.sig.Ready() }

// Value returns the current line, signal, and histogram. Callers must check Ready first.
func (m *MACD) Value() MACDPoint {
	line := m.fast.Value() - m.slow.Value()
	sig := m.sig.Value()
	return MACDPoint{Line: line, Signal: sig, Histogram: line - sig, Ready: m.Ready()}
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.sig.Reset()
}
