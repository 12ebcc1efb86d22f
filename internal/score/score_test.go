package score

import (
	"math"
	"testing"
	"time"

	"signalbot-go/internal/indicator"
)

func testConfig() Config {
	return Config{
		Weights: map[string]float64{
			ComponentRSI:     0.25,
			ComponentMACD:    0.25,
			ComponentMATrend: 0.25,
			ComponentBands:   0.25,
		},
		BuyThreshold:  0.6,
		SellThreshold: -0.6,
	}
}

func TestEdgeTriggeredCrossingFiresOnce(t *testing.T) {
	s := NewScorer()
	cfg := testConfig()
	values := []float64{0.3, 0.65, 0.7, 0.68, 0.72}
	triggers := 0
	for _, v := range values {
		if s.observe(v, cfg) == TriggerBuy {
			triggers++
		}
	}
	if triggers != 1 {
		t.Fatalf("expected exactly one buy trigger across %v, got %d", values, triggers)
	}
}

func TestTriggerFiresOnTransitionOnly(t *testing.T) {
	s := NewScorer()
	cfg := testConfig()
	if trig := s.observe(0.7, cfg); trig != TriggerNone {
		t.Fatalf("first observed score must not trigger, got %v", trig)
	}
	if trig := s.observe(0.72, cfg); trig != TriggerNone {
		t.Fatalf("staying inside the region must not retrigger, got %v", trig)
	}
	if trig := s.observe(0.5, cfg); trig != TriggerNone {
		t.Fatalf("leaving the region must not trigger, got %v", trig)
	}
	if trig := s.observe(0.61, cfg); trig != TriggerBuy {
		t.Fatalf("re-entering the region should trigger, got %v", trig)
	}
}

func TestSellTrigger(t *testing.T) {
	s := NewScorer()
	cfg := testConfig()
	s.observe(-0.2, cfg)
	if trig := s.observe(-0.65, cfg); trig != TriggerSell {
		t.Fatalf("expected sell trigger, got %v", trig)
	}
}

func TestWarmingUpComponentsExcludedWithRenormalization(t *testing.T) {
	s := NewScorer()
	cfg := testConfig()
	// Only RSI is ready, deeply oversold → contribution +1. With weight
	// renormalization the composite must be +1, not +0.25.
	snap := indicator.Snapshot{
		Symbol: "XYZ",
		Ts:     time.Unix(1_700_000_000, 0),
		Price:  100,
		RSI:    indicator.Point{Value: 20, Ready: true},
	}
	sc, _ := s.Update(snap, cfg)
	if !sc.Valid {
		t.Fatalf("expected valid score with one ready component")
	}
	if math.Abs(sc.Value-1) > 1e-12 {
		t.Fatalf("expected renormalized composite 1.0, got %v", sc.Value)
	}
	if len(sc.Contributions) != 1 {
		t.Fatalf("expected a single contribution, got %v", sc.Contributions)
	}
}

func TestAllWarmingUpYieldsInvalidScore(t *testing.T) {
	s := NewScorer()
	sc, trig := s.Update(indicator.Snapshot{Symbol: "XYZ", Price: 100}, testConfig())
	if sc.Valid {
		t.Fatalf("expected invalid score while everything warms up")
	}
	if trig != TriggerNone {
		t.Fatalf("warming up must never trigger, got %v", trig)
	}
	if _, ok := s.Previous(); ok {
		t.Fatalf("invalid scores must not become crossing history")
	}
}

func TestRSIMapping(t *testing.T) {
	s := NewScorer()
	cfg := Config{Weights: map[string]float64{ComponentRSI: 1}, BuyThreshold: 0.6, SellThreshold: -0.6}
	cases := []struct {
		rsi  float64
		want float64
	}{
		{30, 1}, {70, -1}, {50, 0}, {10, 1}, {90, -1}, {60, -0.5},
	}
	for _, c := range cases {
		sc, _ := s.Update(indicator.Snapshot{Price: 100, RSI: indicator.Point{Value: c.rsi, Ready: true}}, cfg)
		if math.Abs(sc.Value-c.want) > 1e-12 {
			t.Fatalf("RSI %v: expected contribution %v, got %v", c.rsi, c.want, sc.Value)
		}
	}
}

func TestBandPositionMapping(t *testing.T) {
	s := NewScorer()
	cfg := Config{Weights: map[string]float64{ComponentBands: 1}, BuyThreshold: 0.6, SellThreshold: -0.6}
	snap := indicator.Snapshot{
		Price: 96,
		Bands: indicator.BandsPoint{Upper: 104, Middle: 100, Lower: 96, Ready: true},
	}
	sc, _ := s.Update(snap, cfg)
	if sc.Value != 1 {
		t.Fatalf("price at lower band should contribute +1, got %v", sc.Value)
	}
	snap.Price = 104
	sc, _ = s.Update(snap, cfg)
	if sc.Value != -1 {
		t.Fatalf("price at upper band should contribute -1, got %v", sc.Value)
	}
}

func TestVWAPDeviationMapping(t *testing.T) {
	s := NewScorer()
	cfg := Config{Weights: map[string]float64{ComponentVWAP: 1}, BuyThreshold: 0.6, SellThreshold: -0.6}
	snap := indicator.Snapshot{
		Price: 99,
		VWAP:  indicator.Point{Value: 100, Ready: true},
	}
	sc, _ := s.Update(snap, cfg)
	if sc.Value <= 0 {
		t.Fatalf("price below VWAP should contribute positively, got %v", sc.Value)
	}
}
