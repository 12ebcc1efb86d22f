// Package score fuses indicator snapshots into a weighted composite in [-1,1]
// and detects edge-triggered threshold crossings.
package score

import (
	"math"
	"time"

	"signalbot-go/internal/indicator"
)

// Component names used as weight-map keys.
const (
	ComponentRSI     = "rsi"
	ComponentMACD    = "macd"
	ComponentMATrend = "ma_trend"
	ComponentBands   = "bb"
	ComponentVWAP    = "vwap"
)

// Components lists every known weight-map key.
var Components = []string{ComponentRSI, ComponentMACD, ComponentMATrend, ComponentBands, ComponentVWAP}

// Config carries the weight map and symmetric trigger thresholds.
// BuyThreshold must be strictly above SellThreshold in score space.
type Config struct {
	Weights       map[string]float64
	BuyThreshold  float64
	SellThreshold float64
}

// Trigger classifies a threshold crossing detected on the latest score.
type Trigger int

const (
	// TriggerNone means the score stayed on the same side of both thresholds.
	TriggerNone Trigger = iota
	// TriggerBuy means the score crossed up into the buy region this update.
	TriggerBuy
	// TriggerSell means the score crossed down into the sell region this update.
	TriggerSell
)

// Score is the composite confidence value derived from one snapshot.
// Valid is false while every weighted component is still warming up.
type Score struct {
	Symbol        string
	Ts            time.Time
	Value         float64
	Contributions map[string]float64
	Valid         bool
}

// Scorer keeps the previous composite value needed for crossover detection.
// One instance per symbol; not safe for concurrent use.
type Scorer struct {
	prev      float64
	prevValid bool
}

// NewScorer builds a scorer with no crossing history.
func NewScorer() *Scorer { return &Scorer{} }

// Update computes the composite for the latest snapshot and reports whether it
// crossed a threshold. Warming-up components are excluded and the remaining
// weights renormalized, so partial warm-up never biases the score toward zero.
//
// Contribution mapping per component, each clamped to [-1,1]:
//   - rsi:      (50-RSI)/20 — +1 at or below 30 (oversold), -1 at or above 70.
//   - macd:     tanh(500·hist/price) — a histogram of 0.2% of price saturates.
//   - ma_trend: tanh(50·(smaShort-smaLong)/smaLong) — a 2% spread saturates.
//   - bb:       1-2·position within the bands — lower band +1, upper band -1.
//   - vwap:     -tanh(100·(price-vwap)/vwap) — 1% below VWAP ≈ +0.76.
func (s *Scorer) Update(snap indicator.Snapshot, cfg Config) (Score, Trigger) {
	contributions := make(map[string]float64, len(Components))
	var weighted, total float64

	add := func(name string, c float64) {
		w := cfg.Weights[name]
		if w <= 0 {
			return
		}
		contributions[name] = c
		weighted += w * c
		total += w
	}

	if snap.RSI.Ready {
		add(ComponentRSI, clamp((50-snap.RSI.Value)/20))
	}
	if snap.MACD.Ready && snap.Price > 0 {
		add(ComponentMACD, math.Tanh(500*snap.MACD.Histogram/snap.Price))
	}
	if snap.SMAShort.Ready && snap.SMALong.Ready && snap.SMALong.Value > 0 {
		spread := (snap.SMAShort.Value - snap.SMALong.Value) / snap.SMALong.Value
		add(ComponentMATrend, math.Tanh(50*spread))
	}
	if snap.Bands.Ready {
		if width := snap.Bands.Upper - snap.Bands.Lower; width > 0 {
			pos := (snap.Price - snap.Bands.Lower) / width
			add(ComponentBands, clamp(1-2*pos))
		}
	}
	if snap.VWAP.Ready && snap.VWAP.Value > 0 {
		dev := (snap.Price - snap.VWAP.Value) / snap.VWAP.Value
		add(ComponentVWAP, -math.Tanh(100*dev))
	}

	sc := Score{Symbol: snap.Symbol, Ts: snap.Ts, Contributions: contributions}
	if total == 0 {
		return sc, TriggerNone
	}
	sc.Value = weighted / total
	sc.Valid = true
	return sc, s.observe(sc.Value, cfg)
}

// observe records the latest composite value and reports an edge-triggered
// crossing. A trigger fires only on the transition into a threshold region,
// never while the score remains inside it, and never on the first valid score.
func (s *Scorer) observe(value float64, cfg Config) Trigger {
	trig := TriggerNone
	if s.prevValid {
		switch {
		case s.prev < cfg.BuyThreshold && value >= cfg.BuyThreshold:
			trig = TriggerBuy
		case s.prev > cfg.SellThreshold && value <= cfg.SellThreshold:
			trig = TriggerSell
		}
	}
	s.prev = value
	s.prevValid = true
	return trig
}

// Previous returns the last composite value, for diagnostics.
func (s *Scorer) Previous() (float64, bool) { return s.prev, s.prevValid }

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
