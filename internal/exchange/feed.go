// Package exchange hosts connectors that push market ticks into the engine.
package exchange

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"signalbot-go/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic ticks (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams live trades from Binance public websockets.
	ProviderBinance = "binance"
)

// Submitter accepts raw ticks for validation and processing. The engine
// implements it; tests substitute recorders.
type Submitter interface {
	Submit(sym string, ts time.Time, price, volume float64) signal.SubmitResult
}

// Feed represents a pluggable market data stream implementation.
type Feed struct {
	provider     string
	log          zerolog.Logger
	pollInterval time.Duration

	mu      sync.RWMutex
	symbols []string
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const defaultPollInterval = 500 * time.Millisecond

// WithPollInterval overrides the default stub tick cadence.
func WithPollInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		log:          log,
		pollInterval: defaultPollInterval,
	}
	f.SetSymbols(symbols)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetSymbols replaces the tracked symbol list (deduplicated, sorted for determinism).
func (f *Feed) SetSymbols(symbols []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unique := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		unique[sym] = struct{}{}
	}
	f.symbols = f.symbols[:0]
	for sym := range unique {
		f.symbols = append(f.symbols, sym)
	}
	sort.Strings(f.symbols)
}

func (f *Feed) snapshotSymbols() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.symbols))
	copy(out, f.symbols)
	return out
}

// Run submits ticks until the context is canceled.
func (f *Feed) Run(ctx context.Context, sub Submitter) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, sub)
	default:
		return f.runStub(ctx, sub)
	}
}

// runStub walks each symbol's price along a slow sine wave so every indicator
// sees both trend and reversal phases.
func (f *Feed) runStub(ctx context.Context, sub Submitter) error {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			step++
			px := 100.0 + 5.0*math.Sin(float64(step)/20.0)
			for _, s := range f.snapshotSymbols() {
				if res := sub.Submit(s, ts, px, 1); res != signal.Accepted {
					f.log.Debug().Str("sym", s).Str("result", res.String()).Msg("stub tick rejected")
				}
			}
		}
	}
}
