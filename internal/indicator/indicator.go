// Package indicator implements incremental technical indicators updated in O(1) per tick.
package indicator

import "time"

// Indicator is a single streaming computation over accepted ticks.
// Implementations are deterministic: identical tick sequences and configuration
// produce bit-identical values.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "RSI(14)".
	Name() string
	// Update consumes the next accepted tick for the symbol.
	Update(price, volume float64, ts time.Time)
	// Ready reports whether the lookback is satisfied. A false value is the
	// normal warming-up state, not an error.
	Ready() bool
	// Reset clears all internal state.
	Reset()
}

// Point carries a scalar indicator value along with its warm-up state.
type Point struct {
	Value float64
	Ready bool
}

// MACDPoint carries the MACD line, signal line, and histogram as one value.
type MACDPoint struct {
	Line      float64
	Signal    float64
	Histogram float64
	Ready     bool
}

// BandsPoint carries the Bollinger middle band and the two envelopes.
type BandsPoint struct {
	Upper  float64
	Middle float64
	Lower  float64
	Ready  bool
}

// Config fixes every lookback and smoothing constant for one bank instance.
type Config struct {
	SMAShort        int
	SMALong         int
	EMAPeriod       int
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BBPeriod        int
	BBStdDev        float64
	ATRPeriod       int
	VWAPSessionSecs int
}

// DefaultConfig mirrors the conventional periods for minute-level data.
func DefaultConfig() Config {
	return Config{
		SMAShort:        20,
		SMALong:         50,
		EMAPeriod:       20,
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BBPeriod:        20,
		BBStdDev:        2.0,
		ATRPeriod:       14,
		VWAPSessionSecs: 86400,
	}
}
