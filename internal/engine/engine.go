// Package engine wires normalization, rolling indicator state, scoring, and
// risk gating into one strictly sequential pipeline per symbol.
package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/config"
	"signalbot-go/internal/indicator"
	"signalbot-go/internal/metrics"
	"signalbot-go/internal/normalize"
	"signalbot-go/internal/risk"
	"signalbot-go/internal/score"
	"signalbot-go/internal/signal"
	"signalbot-go/internal/sink"
)

// Policy bundles the swappable scoring and risk configuration. A policy is
// immutable once installed; the engine reads one pointer per tick, so swaps
// never land mid-cycle.
type Policy struct {
	Scoring score.Config
	Profile risk.Profile
}

// Settings fixes the non-swappable engine knobs at construction.
type Settings struct {
	QueueSize      int
	Lateness       time.Duration
	DedupRetention int
	IdleEvict      time.Duration
	AutoProvision  bool
	Indicators     indicator.Config
}

// Engine owns every per-symbol pipeline. Ticks for one symbol are processed
// strictly in order by a dedicated goroutine; symbols never share mutable
// state, so cross-symbol parallelism is bounded only by tracked symbols.
type Engine struct {
	log      zerolog.Logger
	settings Settings
	hub      *sink.Hub
	policy   atomic.Pointer[Policy]

	mu        sync.Mutex
	workers   map[string]*symbolWorker
	ctx       context.Context
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

type symbolWorker struct {
	symbol   string
	queue    chan signal.Tick
	stop     chan struct{}
	stopOnce sync.Once
	lastSeen atomic.Int64 // unix nanos of last submit, for idle eviction

	qmu sync.Mutex // serializes drop-oldest with enqueue
	inm sync.Mutex // guards the normalizer on the submit path

	norm *normalize.Normalizer

	// Pipeline state below is written only by the worker goroutine;
	// the mutex exists so Inspect can take a consistent read.
	stateMu   sync.Mutex
	bank      *indicator.Bank
	scorer    *score.Scorer
	riskman   *risk.Manager
	lastSnap  indicator.Snapshot
	lastScore score.Score
}

// New builds an engine from validated configuration. Call Start before Submit.
func New(cfg *config.Config, hub *sink.Hub, log zerolog.Logger) *Engine {
	settings := Settings{
		QueueSize:      cfg.Engine.QueueSize,
		Lateness:       time.Duration(cfg.Engine.LatenessToleranceMs) * time.Millisecond,
		DedupRetention: cfg.Engine.DedupRetention,
		IdleEvict:      time.Duration(cfg.Engine.IdleEvictSecs) * time.Second,
		AutoProvision:  cfg.Engine.AutoProvision,
		Indicators: indicator.Config{
			SMAShort:        cfg.Indicators.SMAShort,
			SMALong:         cfg.Indicators.SMALong,
			EMAPeriod:       cfg.Indicators.EMAPeriod,
			RSIPeriod:       cfg.Indicators.RSIPeriod,
			MACDFast:        cfg.Indicators.MACDFast,
			MACDSlow:        cfg.Indicators.MACDSlow,
			MACDSignal:      cfg.Indicators.MACDSignal,
			BBPeriod:        cfg.Indicators.BBPeriod,
			BBStdDev:        cfg.Indicators.BBStdDev,
			ATRPeriod:       cfg.Indicators.ATRPeriod,
			VWAPSessionSecs: cfg.Indicators.VWAPSessionSecs,
		},
	}
	if settings.QueueSize <= 0 {
		settings.QueueSize = 256
	}
	e := NewWithSettings(settings, hub, log)
	e.policy.Store(policyFrom(cfg.Scoring, cfg.Risk))
	return e
}

// NewWithSettings builds an engine from explicit settings with a neutral
// default policy. Tests and embedders use this directly.
func NewWithSettings(settings Settings, hub *sink.Hub, log zerolog.Logger) *Engine {
	if settings.QueueSize <= 0 {
		settings.QueueSize = 256
	}
	e := &Engine{
		log:      log,
		settings: settings,
		hub:      hub,
		workers:  make(map[string]*symbolWorker),
		done:     make(chan struct{}),
	}
	e.policy.Store(&Policy{
		Scoring: score.Config{Weights: map[string]float64{}, BuyThreshold: 1, SellThreshold: -1},
	})
	return e
}

func policyFrom(sc config.Scoring, rk config.Risk) *Policy {
	weights := make(map[string]float64, len(sc.Weights))
	for k, v := range sc.Weights {
		weights[k] = v
	}
	return &Policy{
		Scoring: score.Config{
			Weights:       weights,
			BuyThreshold:  sc.BuyThreshold,
			SellThreshold: sc.SellThreshold,
		},
		Profile: risk.Profile{
			MaxPositionFraction: rk.MaxPositionFraction,
			StopLossMult:        rk.StopLossMult,
			TakeProfitMult:      rk.TakeProfitMult,
			Cooldown:            time.Duration(rk.CooldownSecs) * time.Second,
		},
	}
}

// UpdatePolicy validates and installs a new scoring/risk policy atomically.
// An invalid leaf leaves the previous policy untouched.
func (e *Engine) UpdatePolicy(sc config.Scoring, rk config.Risk) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	if err := rk.Validate(); err != nil {
		return err
	}
	e.policy.Store(policyFrom(sc, rk))
	e.log.Info().Msg("policy updated")
	return nil
}

// Start binds the engine to a context and begins the idle-eviction janitor.
// Worker goroutines stop when the context is canceled.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
	if e.settings.IdleEvict > 0 {
		e.wg.Add(1)
		go e.janitor(ctx)
	}
}

// Submit validates and enqueues one raw tick. The returned result reflects
// ingress validation only; a later backpressure drop is reported through the
// sink as a TickDropped event, never as a rejection here.
func (e *Engine) Submit(sym string, ts time.Time, price, volume float64) signal.SubmitResult {
	w := e.worker(sym, e.settings.AutoProvision)
	if w == nil {
		metrics.TicksRejectedTotal.WithLabelValues(sym, signal.RejectedUnknownSymbol.String()).Inc()
		return signal.RejectedUnknownSymbol
	}

	w.inm.Lock()
	tick, res := w.norm.Accept(signal.Tick{Symbol: sym, Price: price, Volume: volume, Ts: ts})
	w.inm.Unlock()
	switch res {
	case normalize.Stale:
		metrics.TicksRejectedTotal.WithLabelValues(sym, signal.RejectedStale.String()).Inc()
		return signal.RejectedStale
	case normalize.Duplicate:
		metrics.TicksRejectedTotal.WithLabelValues(sym, signal.RejectedDuplicate.String()).Inc()
		return signal.RejectedDuplicate
	}

	metrics.TicksTotal.WithLabelValues(sym).Inc()
	w.lastSeen.Store(time.Now().UnixNano())
	e.enqueue(w, tick)
	return signal.Accepted
}

// enqueue appends an accepted tick, shedding the oldest queued (not yet
// processed) tick when the queue is full. Processed history is never altered.
func (e *Engine) enqueue(w *symbolWorker, t signal.Tick) {
	w.qmu.Lock()
	defer w.qmu.Unlock()
	for {
		select {
		case w.queue <- t:
			return
		default:
		}
		select {
		case old := <-w.queue:
			metrics.TicksDroppedTotal.WithLabelValues(old.Symbol).Inc()
			if e.hub != nil {
				e.hub.PublishDrop(signal.Drop{Symbol: old.Symbol, Ts: old.Ts, Reason: "queue_overflow"})
			}
		default:
		}
	}
}

// worker returns the pipeline for a symbol, creating it when provisioning is allowed.
func (e *Engine) worker(sym string, provision bool) *symbolWorker {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.workers[sym]; ok {
		return w
	}
	if !provision || e.ctx == nil {
		return nil
	}
	w := &symbolWorker{
		symbol:  sym,
		queue:   make(chan signal.Tick, e.settings.QueueSize),
		stop:    make(chan struct{}),
		norm:    normalize.New(e.settings.Lateness, e.settings.DedupRetention),
		bank:    indicator.NewBank(e.settings.Indicators),
		scorer:  score.NewScorer(),
		riskman: risk.NewManager(),
	}
	w.lastSeen.Store(time.Now().UnixNano())
	e.workers[sym] = w
	e.wg.Add(1)
	go e.runWorker(w)
	e.log.Debug().Str("sym", sym).Msg("symbol pipeline provisioned")
	return w
}

func (e *Engine) runWorker(w *symbolWorker) {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-w.stop:
			return
		case tk := <-w.queue:
			e.process(w, tk)
		}
	}
}

// process runs the full pipeline for one tick: indicators, composite score,
// risk gate, sink. Invariant violations discard only this symbol's state; a
// fresh pipeline is provisioned on the next tick.
func (e *Engine) process(w *symbolWorker, tk signal.Tick) {
	// A non-finite price or volume would poison cumulative indicator state
	// (VWAP sums, Wilder averages) for the rest of the session, so it trips
	// the invariant path before the bank ever sees the tick.
	if !finite(tk.Price) || !finite(tk.Volume) {
		e.log.Error().Err(risk.ErrInvariantViolation).
			Str("sym", w.symbol).
			Float64("price", tk.Price).
			Float64("volume", tk.Volume).
			Msg("non-finite tick, discarding symbol state")
		metrics.SymbolResetsTotal.WithLabelValues(w.symbol).Inc()
		e.evict(w.symbol)
		return
	}

	pol := e.policy.Load()

	w.stateMu.Lock()
	snap := w.bank.Update(tk)
	sc, trig := w.scorer.Update(snap, pol.Scoring)
	sig, err := w.riskman.Evaluate(trig, snap, sc, pol.Profile)
	w.lastSnap = snap
	w.lastScore = sc
	w.stateMu.Unlock()

	if err != nil {
		e.log.Error().Err(err).Str("sym", w.symbol).Msg("invariant violation, discarding symbol state")
		metrics.SymbolResetsTotal.WithLabelValues(w.symbol).Inc()
		e.evict(w.symbol)
		return
	}
	if sig != nil {
		metrics.SignalsTotal.WithLabelValues(sig.Symbol, string(sig.Side)).Inc()
		e.log.Info().
			Str("sym", sig.Symbol).
			Str("side", string(sig.Side)).
			Float64("entry", sig.EntryPrice).
			Float64("confidence", sig.Confidence).
			Msg("signal emitted")
		if e.hub != nil {
			e.hub.Publish(*sig)
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// TrackSymbol provisions a pipeline ahead of the first tick, regardless of the
// auto-provision setting.
func (e *Engine) TrackSymbol(sym string) {
	e.worker(sym, true)
}

// UntrackSymbol tears down a symbol's pipeline, releasing all rolling state.
func (e *Engine) UntrackSymbol(sym string) {
	e.evict(sym)
}

func (e *Engine) evict(sym string) {
	e.mu.Lock()
	w, ok := e.workers[sym]
	if ok {
		delete(e.workers, sym)
	}
	e.mu.Unlock()
	if ok {
		w.stopOnce.Do(func() { close(w.stop) })
	}
}

// janitor evicts pipelines that received no ticks for the idle period.
// Teardown happens between ticks only; the worker goroutine exits at its next
// scheduling point.
func (e *Engine) janitor(ctx context.Context) {
	defer e.wg.Done()
	interval := e.settings.IdleEvict / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-e.settings.IdleEvict).UnixNano()
			e.mu.Lock()
			var idle []string
			for sym, w := range e.workers {
				if w.lastSeen.Load() < cutoff {
					idle = append(idle, sym)
				}
			}
			e.mu.Unlock()
			for _, sym := range idle {
				e.log.Info().Str("sym", sym).Msg("evicting idle symbol pipeline")
				e.evict(sym)
			}
		}
	}
}

// Close tears down every pipeline and waits for worker goroutines to exit.
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.done) })
	e.mu.Lock()
	workers := make([]*symbolWorker, 0, len(e.workers))
	for _, w := range e.workers {
		workers = append(workers, w)
	}
	e.workers = make(map[string]*symbolWorker)
	e.mu.Unlock()
	for _, w := range workers {
		w.stopOnce.Do(func() { close(w.stop) })
	}
	e.wg.Wait()
}
