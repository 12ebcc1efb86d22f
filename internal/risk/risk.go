// Package risk turns score triggers into concrete signals with price brackets,
// position sizing, cooldown, and conflicting-signal suppression.
package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"signalbot-go/internal/indicator"
	"signalbot-go/internal/metrics"
	"signalbot-go/internal/score"
	"signalbot-go/internal/signal"
)

// ErrInvariantViolation marks a computed signal that broke a hard invariant
// (NaN input, non-positive size). The caller must discard the symbol state.
var ErrInvariantViolation = errors.New("risk invariant violation")

// Profile carries the externally configured risk knobs. Read-only during a
// cycle; the engine swaps whole profiles atomically between ticks.
type Profile struct {
	MaxPositionFraction float64
	StopLossMult        float64
	TakeProfitMult      float64
	Cooldown            time.Duration
}

// State enumerates the per-symbol signal lifecycle.
type State int

const (
	// Idle means the symbol may emit on the next qualifying trigger.
	Idle State = iota
	// PositionSuggested means a signal was just emitted this cycle.
	PositionSuggested
	// Cooldown means the quiet period after an emission is still running.
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case PositionSuggested:
		return "POSITION_SUGGESTED"
	case Cooldown:
		return "COOLDOWN"
	default:
		return "UNKNOWN"
	}
}

// Higher volatility shrinks position size; at sizingVolScale times the
// ATR-to-price ratio of 5% the recommended fraction is halved.
const sizingVolScale = 20.0

// Manager is the per-symbol signal state machine. Driven by tick timestamps,
// never wall clock, so replays are deterministic. Not safe for concurrent use.
type Manager struct {
	state         State
	cooldownUntil time.Time
	lastSide      signal.Side
}

// NewManager builds a manager in the idle state.
func NewManager() *Manager { return &Manager{} }

// State reports the current lifecycle state, for diagnostics.
func (m *Manager) State() State { return m.state }

// CooldownUntil reports when the current quiet period ends, for diagnostics.
func (m *Manager) CooldownUntil() time.Time { return m.cooldownUntil }

// Evaluate advances the state machine for one tick and, when a trigger
// qualifies, emits a fully priced signal. It fails closed: no signal leaves
// while ATR is warming up. A returned error means the symbol state is corrupt
// and must be discarded by the caller.
func (m *Manager) Evaluate(trig score.Trigger, snap indicator.Snapshot, sc score.Score, p Profile) (*signal.Signal, error) {
	// An emission occupies exactly one cycle before the cooldown clock shows.
	if m.state == PositionSuggested {
		m.state = Cooldown
	}
	if m.state == Cooldown && !snap.Ts.Before(m.cooldownUntil) {
		m.state = Idle
	}

	if trig == score.TriggerNone {
		return nil, nil
	}
	side := signal.Buy
	if trig == score.TriggerSell {
		side = signal.Sell
	}

	if m.state != Idle {
		if side != m.lastSide {
			// Opposite-direction crossing during cooldown: recorded, not emitted.
			metrics.MissedOpposingTotal.WithLabelValues(snap.Symbol).Inc()
		}
		return nil, nil
	}

	// Risk-blind signals are forbidden: without a defined ATR there is no
	// stop distance and no sizing, so nothing is emitted.
	if !snap.ATR.Ready || snap.ATR.Value <= 0 {
		return nil, nil
	}

	entry := snap.Price
	atr := snap.ATR.Value
	if math.IsNaN(entry) || math.IsNaN(atr) || entry <= 0 {
		return nil, fmt.Errorf("%w: entry=%v atr=%v", ErrInvariantViolation, entry, atr)
	}

	var stop, target float64
	if side == signal.Buy {
		stop = entry - atr*p.StopLossMult
		target = entry + atr*p.TakeProfitMult
	} else {
		stop = entry + atr*p.StopLossMult
		target = entry - atr*p.TakeProfitMult
	}

	size := p.MaxPositionFraction / (1 + sizingVolScale*atr/entry)
	if size > p.MaxPositionFraction {
		size = p.MaxPositionFraction
	}
	if math.IsNaN(size) || size < 0 {
		return nil, fmt.Errorf("%w: position size %v", ErrInvariantViolation, size)
	}

	out := &signal.Signal{
		Symbol:               snap.Symbol,
		Side:                 side,
		EntryPrice:           entry,
		TargetPrice:          target,
		StopLossPrice:        stop,
		PositionSizeFraction: size,
		Confidence:           math.Min(1, math.Abs(sc.Value)),
		GeneratedAt:          snap.Ts,
		Rationale:            rationale(side, sc, atr, p),
	}

	m.state = PositionSuggested
	m.cooldownUntil = snap.Ts.Add(p.Cooldown)
	m.lastSide = side
	return out, nil
}

// rationale lists the facts behind an emission in a deterministic order.
func rationale(side signal.Side, sc score.Score, atr float64, p Profile) []string {
	facts := make([]string, 0, len(sc.Contributions)+2)
	facts = append(facts, fmt.Sprintf("composite %.4f crossed %s threshold", sc.Value, side))
	names := make([]string, 0, len(sc.Contributions))
	for name := range sc.Contributions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		facts = append(facts, fmt.Sprintf("%s contribution %+.4f", name, sc.Contributions[name]))
	}
	facts = append(facts, fmt.Sprintf("atr %.6f, stop %.1fx, target %.1fx", atr, p.StopLossMult, p.TakeProfitMult))
	return facts
}

// Reset returns the manager to idle with no emission history.
func (m *Manager) Reset() {
	*m = Manager{}
}
