package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/config"
	"signalbot-go/internal/engine"
	sig "signalbot-go/internal/signal"
	"signalbot-go/internal/sink"
)

type collectConsumer struct {
	mu      sync.Mutex
	signals []sig.Signal
}

func (c *collectConsumer) Name() string             { return "collect" }
func (c *collectConsumer) OnTickDropped(d sig.Drop) {}

func (c *collectConsumer) OnSignal(s sig.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = append(c.signals, s)
}

func (c *collectConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.signals)
}

func TestSignalFlowEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	recorderPath := filepath.Join(dir, "signals.jsonl")
	recorder, err := sink.NewJSONLRecorder(recorderPath)
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}

	hub := sink.NewHub(zerolog.Nop())
	collect := &collectConsumer{}
	hub.Register(collect, 64)
	hub.Register(recorder, 64)

	cfg := &config.Config{
		Engine: config.Engine{
			QueueSize:           128,
			LatenessToleranceMs: 2000,
			DedupRetention:      256,
			AutoProvision:       true,
		},
		Indicators: config.Indicators{
			SMAShort: 3, SMALong: 5, EMAPeriod: 5, RSIPeriod: 5,
			MACDFast: 3, MACDSlow: 6, MACDSignal: 3,
			BBPeriod: 5, BBStdDev: 2, ATRPeriod: 3, VWAPSessionSecs: 0,
		},
		Scoring: config.Scoring{
			Weights:       map[string]float64{"rsi": 0.5, "bb": 0.3, "vwap": 0.2},
			BuyThreshold:  0.6,
			SellThreshold: -0.6,
		},
		Risk: config.Risk{
			MaxPositionFraction: 0.1,
			StopLossMult:        2,
			TakeProfitMult:      4,
			CooldownSecs:        300,
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	eng := engine.New(cfg, hub, zerolog.Nop())
	eng.Start(ctx)
	defer eng.Close()

	// A quiet market establishes neutral indicator state, then a sharp
	// decline pushes the composite across the buy threshold.
	ts := time.Unix(1_700_000_000, 0)
	price := 100.0
	for i := 0; i < 12; i++ {
		if res := eng.Submit("MEMEUSDT", ts, price, 10); res != sig.Accepted {
			t.Fatalf("flat tick %d rejected: %s", i, res)
		}
		ts = ts.Add(time.Second)
	}
	for i := 0; i < 10; i++ {
		price -= 2
		if res := eng.Submit("MEMEUSDT", ts, price, 10); res != sig.Accepted {
			t.Fatalf("decline tick %d rejected: %s", i, res)
		}
		ts = ts.Add(time.Second)
	}

	deadline := time.Now().Add(3 * time.Second)
	for collect.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for a signal")
		}
		time.Sleep(5 * time.Millisecond)
	}

	eng.Close()
	hub.Close()
	if err := recorder.Close(); err != nil {
		t.Fatalf("recorder close: %v", err)
	}

	if got := collect.count(); got != 1 {
		t.Fatalf("cooldown should allow exactly one signal, got %d", got)
	}
	collect.mu.Lock()
	emitted := collect.signals[0]
	collect.mu.Unlock()

	if emitted.Symbol != "MEMEUSDT" {
		t.Fatalf("unexpected symbol %s", emitted.Symbol)
	}
	if emitted.Side != sig.Buy {
		t.Fatalf("decline into oversold should suggest BUY, got %s", emitted.Side)
	}
	if !(emitted.StopLossPrice < emitted.EntryPrice && emitted.EntryPrice < emitted.TargetPrice) {
		t.Fatalf("bracket violated: stop=%v entry=%v target=%v",
			emitted.StopLossPrice, emitted.EntryPrice, emitted.TargetPrice)
	}
	if emitted.PositionSizeFraction <= 0 || emitted.PositionSizeFraction > cfg.Risk.MaxPositionFraction {
		t.Fatalf("position size out of bounds: %v", emitted.PositionSizeFraction)
	}
	if emitted.Confidence <= 0 || emitted.Confidence > 1 {
		t.Fatalf("confidence out of bounds: %v", emitted.Confidence)
	}

	// The recorder must have persisted the same signal.
	data, err := os.ReadFile(recorderPath)
	if err != nil {
		t.Fatalf("read recorded signals: %v", err)
	}
	var persisted sig.Signal
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("decode recorded signal: %v", err)
	}
	if persisted.Symbol != emitted.Symbol || persisted.Side != emitted.Side {
		t.Fatalf("recorded signal mismatch: %+v vs %+v", persisted, emitted)
	}
}
