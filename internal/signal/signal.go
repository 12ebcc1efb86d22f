// Package signal standardizes payloads shared between ingestion, scoring, and delivery layers.
package signal

import "time"

// Tick models a single timestamped trade observation for a symbol.
type Tick struct {
	Symbol string
	Price  float64
	Volume float64
	Ts     time.Time
}

// Side enumerates the direction of an emitted trading signal.
type Side string

const (
	// Buy indicates a long entry suggestion.
	Buy Side = "BUY"
	// Sell indicates a short entry suggestion.
	Sell Side = "SELL"
)

// SubmitResult reports the outcome of pushing a raw tick into the engine.
type SubmitResult int

const (
	// Accepted means the tick passed validation and was queued for processing.
	Accepted SubmitResult = iota
	// RejectedStale means the tick was older than the watermark minus the lateness tolerance.
	RejectedStale
	// RejectedDuplicate means a tick with the same (symbol, timestamp) was already seen.
	RejectedDuplicate
	// RejectedUnknownSymbol means the symbol is not tracked and auto-provisioning is off.
	RejectedUnknownSymbol
)

// String returns the metric-friendly label for a submit result.
func (r SubmitResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectedStale:
		return "stale"
	case RejectedDuplicate:
		return "duplicate"
	case RejectedUnknownSymbol:
		return "unknown_symbol"
	default:
		return "unknown"
	}
}

// Signal expresses a fully risk-annotated trade suggestion. Immutable once emitted.
type Signal struct {
	Symbol               string
	Side                 Side
	EntryPrice           float64
	TargetPrice          float64
	StopLossPrice        float64
	PositionSizeFraction float64
	Confidence           float64
	GeneratedAt          time.Time
	Rationale            []string
}

// Drop records a queued tick discarded under backpressure, for observability consumers.
type Drop struct {
	Symbol string
	Ts     time.Time
	Reason string
}
