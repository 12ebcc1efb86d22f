package engine

import (
	"time"

	"signalbot-go/internal/indicator"
	"signalbot-go/internal/score"
)

// Report is a read-only diagnostic view of one symbol's pipeline.
type Report struct {
	Symbol        string
	Watermark     time.Time
	Snapshot      indicator.Snapshot
	Score         score.Score
	State         string
	CooldownUntil time.Time
}

// Inspect returns the current indicator values, composite score, and
// state-machine position for a tracked symbol. The second return is false for
// unknown symbols.
func (e *Engine) Inspect(sym string) (Report, bool) {
	e.mu.Lock()
	w, ok := e.workers[sym]
	e.mu.Unlock()
	if !ok {
		return Report{}, false
	}

	w.inm.Lock()
	watermark := w.norm.Watermark()
	w.inm.Unlock()

	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return Report{
		Symbol:        sym,
		Watermark:     watermark,
		Snapshot:      w.lastSnap,
		Score:         w.lastScore,
		State:         w.riskman.State().String(),
		CooldownUntil: w.riskman.CooldownUntil(),
	}, true
}

// Symbols lists every tracked symbol, for diagnostics.
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.workers))
	for sym := range e.workers {
		out = append(out, sym)
	}
	return out
}
