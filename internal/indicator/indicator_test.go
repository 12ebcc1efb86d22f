package indicator

import (
	"math"
	"reflect"
	"testing"
	"time"

	"signalbot-go/internal/signal"
)

func at(i int) time.Time {
	return time.Unix(1_700_000_000+int64(i), 0)
}

func TestSMAWarmupAndConstantPrice(t *testing.T) {
	sma := NewSMA(10)
	for i := 0; i < 9; i++ {
		sma.Update(100, 0, at(i))
		if sma.Ready() {
			t.Fatalf("SMA ready after %d samples, want warm-up through 9", i+1)
		}
	}
	sma.Update(100, 0, at(9))
	if !sma.Ready() {
		t.Fatalf("SMA not ready after 10 samples")
	}
	if sma.Value() != 100.0 {
		t.Fatalf("expected SMA 100.0 exactly, got %v", sma.Value())
	}
}

func TestSMARollsOffOldSamples(t *testing.T) {
	sma := NewSMA(3)
	for i, p := range []float64{1, 2, 3, 4, 5} {
		sma.Update(p, 0, at(i))
	}
	if got := sma.Value(); got != 4 {
		t.Fatalf("expected mean of last 3 samples (4), got %v", got)
	}
}

func TestEMASeededWithFirstSMA(t *testing.T) {
	ema := NewEMA(3)
	prices := []float64{10, 20, 30}
	for i, p := range prices {
		ema.Update(p, 0, at(i))
	}
	if !ema.Ready() {
		t.Fatalf("EMA not ready after period samples")
	}
	if ema.Value() != 20 {
		t.Fatalf("expected seed value 20 (SMA of first 3), got %v", ema.Value())
	}
	ema.Update(40, 0, at(3))
	// alpha = 2/(3+1) = 0.5
	want := 0.5*40 + 0.5*20
	if ema.Value() != want {
		t.Fatalf("expected %v after decay step, got %v", want, ema.Value())
	}
}

func TestRSIWilderSmoothing(t *testing.T) {
	rsi := NewRSI(2)
	prices := []float64{1, 2, 3}
	for i, p := range prices {
		rsi.Update(p, 0, at(i))
	}
	if !rsi.Ready() {
		t.Fatalf("RSI not ready after period deltas")
	}
	if rsi.Value() != 100 {
		t.Fatalf("all gains should yield RSI 100, got %v", rsi.Value())
	}
	rsi.Update(1, 0, at(3))
	// avgGain = (1*1+0)/2 = 0.5, avgLoss = (0*1+2)/2 = 1, rs = 0.5
	want := 100 - 100/1.5
	if math.Abs(rsi.Value()-want) > 1e-12 {
		t.Fatalf("expected RSI %v, got %v", want, rsi.Value())
	}
}

func TestRSIFlatSeriesIsNeutral(t *testing.T) {
	rsi := NewRSI(3)
	for i := 0; i < 6; i++ {
		rsi.Update(100, 0, at(i))
	}
	if rsi.Value() != 50 {
		t.Fatalf("flat series should yield neutral RSI 50, got %v", rsi.Value())
	}
}

func TestMACDWarmupAndHistogram(t *testing.T) {
	macd := NewMACD(3, 6, 3)
	i := 0
	for ; i < 7; i++ {
		macd.Update(float64(100+i), 0, at(i))
		if macd.Ready() {
			t.Fatalf("MACD ready after %d samples, signal line still warming", i+1)
		}
	}
	macd.Update(float64(100+i), 0, at(i))
	if !macd.Ready() {
		t.Fatalf("MACD not ready after slow+signal warm-up")
	}
	v := macd.Value()
	if v.Histogram != v.Line-v.Signal {
		t.Fatalf("histogram %v != line-signal %v", v.Histogram, v.Line-v.Signal)
	}
	// Steadily rising prices keep the fast EMA above the slow EMA.
	if v.Line <= 0 {
		t.Fatalf("expected positive MACD line in an uptrend, got %v", v.Line)
	}
}

func TestBollingerConstantPriceCollapses(t *testing.T) {
	b := NewBollinger(5, 2)
	for i := 0; i < 5; i++ {
		b.Update(100, 0, at(i))
	}
	v := b.Value()
	if !v.Ready {
		t.Fatalf("bands not ready after period samples")
	}
	if v.Upper != 100 || v.Middle != 100 || v.Lower != 100 {
		t.Fatalf("constant price should collapse bands to the price, got %+v", v)
	}
}

func TestBollingerWidthTracksDispersion(t *testing.T) {
	b := NewBollinger(4, 2)
	for i, p := range []float64{98, 102, 98, 102} {
		b.Update(p, 0, at(i))
	}
	v := b.Value()
	if v.Middle != 100 {
		t.Fatalf("expected middle 100, got %v", v.Middle)
	}
	// stddev of {98,102,98,102} is 2, k=2 → envelopes at ±4.
	if math.Abs(v.Upper-104) > 1e-9 || math.Abs(v.Lower-96) > 1e-9 {
		t.Fatalf("unexpected envelopes %+v", v)
	}
}

func TestATRTickApproximation(t *testing.T) {
	atr := NewATR(3)
	prices := []float64{100, 101, 100, 101}
	for i, p := range prices {
		atr.Update(p, 0, at(i))
	}
	if !atr.Ready() {
		t.Fatalf("ATR not ready after period true ranges")
	}
	if atr.Value() != 1 {
		t.Fatalf("alternating ±1 moves should average to 1, got %v", atr.Value())
	}
}

func TestVWAPSessionReset(t *testing.T) {
	v := NewVWAP(60)
	base := time.Unix(1_700_000_040, 0) // 20s before a minute boundary
	v.Update(100, 10, base)
	v.Update(200, 10, base.Add(10*time.Second))
	if v.Value() != 150 {
		t.Fatalf("expected VWAP 150 within session, got %v", v.Value())
	}
	// Crossing into the next minute bucket resets the accumulators.
	v.Update(300, 10, base.Add(30*time.Second))
	if v.Value() != 300 {
		t.Fatalf("expected session reset to yield 300, got %v", v.Value())
	}
}

func TestVWAPIgnoresZeroVolume(t *testing.T) {
	v := NewVWAP(0)
	v.Update(100, 0, at(0))
	if v.Ready() {
		t.Fatalf("VWAP should stay warming up without volume")
	}
	v.Update(100, 1000, at(1))
	if v.Value() != 100 {
		t.Fatalf("expected VWAP 100, got %v", v.Value())
	}
}

func TestBankConstantPriceScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SMAShort = 10
	bank := NewBank(cfg)

	var last Snapshot
	for i := 0; i < 20; i++ {
		last = bank.Update(signal.Tick{Symbol: "XYZ", Price: 100, Volume: 1000, Ts: at(i)})
		if i < 9 && last.SMAShort.Ready {
			t.Fatalf("tick %d: SMA(10) should still be warming up", i+1)
		}
		if i >= 9 {
			if !last.SMAShort.Ready || last.SMAShort.Value != 100.0 {
				t.Fatalf("tick %d: expected SMA exactly 100.0, got %+v", i+1, last.SMAShort)
			}
		}
	}
	if !last.VWAP.Ready || last.VWAP.Value != 100.0 {
		t.Fatalf("expected VWAP exactly 100.0, got %+v", last.VWAP)
	}
}

func TestBankBitReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SMAShort, cfg.SMALong, cfg.RSIPeriod, cfg.ATRPeriod, cfg.BBPeriod = 3, 5, 3, 3, 4
	cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal = 3, 6, 3

	run := func() []Snapshot {
		bank := NewBank(cfg)
		out := make([]Snapshot, 0, 32)
		price := 100.0
		for i := 0; i < 32; i++ {
			// Deterministic pseudo-walk, no wall clock involved.
			price += float64((i*7)%5) - 2
			out = append(out, bank.Update(signal.Tick{Symbol: "XYZ", Price: price, Volume: 10, Ts: at(i)}))
		}
		return out
	}

	if !reflect.DeepEqual(run(), run()) {
		t.Fatalf("identical tick sequences produced different snapshots")
	}
}
