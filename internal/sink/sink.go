// Package sink fans finalized signals out to external consumers without
// letting a slow consumer block the engine or its peers.
package sink

import (
	"sync"

	"github.com/rs/zerolog"

	"signalbot-go/internal/metrics"
	"signalbot-go/internal/signal"
)

// Consumer receives emitted signals and observability events. Implementations
// must tolerate being called from a dedicated delivery goroutine.
type Consumer interface {
	Name() string
	OnSignal(signal.Signal)
	OnTickDropped(signal.Drop)
}

type event struct {
	sig  *signal.Signal
	drop *signal.Drop
}

type worker struct {
	name string
	ch   chan event
	mu   sync.Mutex // serializes drop-oldest with enqueue
}

// Hub delivers each event to every registered consumer through a bounded
// per-consumer queue. Queues are lossy: when one fills, the oldest queued
// event is dropped so slow consumers fall behind instead of backpressuring
// the engine. Per-consumer delivery order follows publish order.
type Hub struct {
	log     zerolog.Logger
	mu      sync.RWMutex
	workers []*worker
	wg      sync.WaitGroup
	closed  bool
}

// NewHub builds an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{log: log}
}

// Register attaches a consumer with its own bounded queue and starts its
// delivery goroutine. Must be called before Close.
func (h *Hub) Register(c Consumer, queueSize int) {
	if queueSize <= 0 {
		queueSize = 64
	}
	w := &worker{name: c.Name(), ch: make(chan event, queueSize)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.workers = append(h.workers, w)
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		for ev := range w.ch {
			if ev.sig != nil {
				c.OnSignal(*ev.sig)
			}
			if ev.drop != nil {
				c.OnTickDropped(*ev.drop)
			}
		}
	}()
}

// Publish hands a signal to every consumer queue.
func (h *Hub) Publish(s signal.Signal) {
	h.broadcast(event{sig: &s})
}

// PublishDrop hands a backpressure drop event to every consumer queue.
func (h *Hub) PublishDrop(d signal.Drop) {
	h.broadcast(event{drop: &d})
}

func (h *Hub) broadcast(ev event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, w := range h.workers {
		w.enqueue(ev, h.log)
	}
}

// enqueue appends an event, evicting the oldest queued one when full.
func (w *worker) enqueue(ev event, log zerolog.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		select {
		case w.ch <- ev:
			return
		default:
		}
		select {
		case <-w.ch:
			metrics.SinkDroppedTotal.WithLabelValues(w.name).Inc()
			log.Warn().Str("consumer", w.name).Msg("sink queue full, dropped oldest event")
		default:
		}
	}
}

// Close stops accepting events and waits for queued deliveries to drain.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	workers := h.workers
	h.mu.Unlock()

	for _, w := range workers {
		w.mu.Lock()
		close(w.ch)
		w.mu.Unlock()
	}
	h.wg.Wait()
}
