package indicator

import (
	"time"

	"signalbot-go/internal/signal"
)

// Bank bundles one instance of every configured indicator for a single symbol.
// It is not safe for concurrent use; each symbol pipeline owns exactly one bank.
type Bank struct {
	smaShort *SMA
	smaLong  *SMA
	ema      *EMA
	rsi      *RSI
	macd     *MACD
	bands    *Bollinger
	atr      *ATR
	vwap     *VWAP
}

// Snapshot is the immutable set of indicator values computed from one tick.
// A new snapshot supersedes the previous one; values are never mutated in place.
type Snapshot struct {
	Symbol   string
	Ts       time.Time
	Price    float64
	SMAShort Point
	SMALong  Point
	EMA      Point
	RSI      Point
	MACD     MACDPoint
	Bands    BandsPoint
	ATR      Point
	VWAP     Point
}

// NewBank builds a bank from a validated configuration.
func NewBank(cfg Config) *Bank {
	return &Bank{
		smaShort: NewSMA(cfg.SMAShort),
		smaLong:  NewSMA(cfg.SMALong),
		ema:      NewEMA(cfg.EMAPeriod),
		rsi:      NewRSI(cfg.RSIPeriod),
		macd:     NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		bands:    NewBollinger(cfg.BBPeriod, cfg.BBStdDev),
		atr:      NewATR(cfg.ATRPeriod),
		vwap:     NewVWAP(cfg.VWAPSessionSecs),
	}
}

// Update feeds one accepted tick through every indicator and returns the
// resulting snapshot.
func (b *Bank) Update(t signal.Tick) Snapshot {
	for _, ind := range []Indicator{b.smaShort, b.smaLong, b.ema, b.rsi, b.macd, b.bands, b.atr, b.vwap} {
		ind.Update(t.Price, t.Volume, t.Ts)
	}
	return Snapshot{
		Symbol:   t.Symbol,
		Ts:       t.Ts,
		Price:    t.Price,
		SMAShort: Point{Value: b.smaShort.Value(), Ready: b.smaShort.Ready()},
		SMALong:  Point{Value: b.smaLong.Value(), Ready: b.smaLong.Ready()},
		EMA:      Point{Value: b.ema.Value(), Ready: b.ema.Ready()},
		RSI:      Point{Value: b.rsi.Value(), Ready: b.rsi.Ready()},
		MACD:     b.macd.Value(),
		Bands:    b.bands.Value(),
		ATR:      Point{Value: b.atr.Value(), Ready: b.atr.Ready()},
		VWAP:     Point{Value: b.vwap.Value(), Ready: b.vwap.Ready()},
	}
}

// Reset clears every indicator back to its warming-up state.
func (b *Bank) Reset() {
	for _, ind := range []Indicator{b.smaShort, b.smaLong, b.ema, b.rsi, b.macd, b.bands, b.atr, b.vwap} {
		ind.Reset()
	}
}
