// Package metrics exposes Prometheus counters for the signal engine hot path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market ticks accepted into symbol pipelines"},
		[]string{"symbol"},
	)
	TicksRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_rejected_total", Help: "Ticks rejected at ingress by reason"},
		[]string{"symbol", "reason"},
	)
	TicksDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_dropped_total", Help: "Queued ticks discarded under backpressure"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Trading signals emitted"},
		[]string{"symbol", "side"},
	)
	MissedOpposingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "missed_opposing_total", Help: "Opposite-direction triggers swallowed during cooldown"},
		[]string{"symbol"},
	)
	SinkDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sink_dropped_total", Help: "Events dropped on full consumer queues"},
		[]string{"consumer"},
	)
	SymbolResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "symbol_resets_total", Help: "Symbol states discarded after invariant violations"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal, TicksRejectedTotal, TicksDroppedTotal,
		SignalsTotal, MissedOpposingTotal, SinkDroppedTotal, SymbolResetsTotal,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
