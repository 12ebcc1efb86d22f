package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"signalbot-go/internal/signal"
)

// AlertConsumer writes human-readable alerts through zerolog. It stands in for
// the SMS/push transports that live outside the engine boundary.
type AlertConsumer struct {
	log zerolog.Logger
}

// NewAlertConsumer wraps a zerolog logger as a signal consumer.
func NewAlertConsumer(log zerolog.Logger) *AlertConsumer {
	return &AlertConsumer{log: log}
}

func (a *AlertConsumer) Name() string { return "alert" }

func (a *AlertConsumer) OnSignal(s signal.Signal) {
	a.log.Info().
		Str("sym", s.Symbol).
		Str("side", string(s.Side)).
		Float64("entry", s.EntryPrice).
		Float64("target", s.TargetPrice).
		Float64("stop", s.StopLossPrice).
		Float64("size_frac", s.PositionSizeFraction).
		Float64("confidence", s.Confidence).
		Strs("rationale", s.Rationale).
		Msg("trading signal")
}

func (a *AlertConsumer) OnTickDropped(d signal.Drop) {
	a.log.Warn().Str("sym", d.Symbol).Time("ts", d.Ts).Str("reason", d.Reason).Msg("tick dropped")
}

// JSONLRecorder appends emitted signals as JSON lines for later analysis.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{file: file, enc: json.NewEncoder(file)}, nil
}

func (r *JSONLRecorder) Name() string { return "jsonl" }

// OnSignal writes a single signal to the underlying JSONL file.
func (r *JSONLRecorder) OnSignal(s signal.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return
	}
	_ = r.enc.Encode(s)
}

// OnTickDropped is ignored; the recorder keeps signals only.
func (r *JSONLRecorder) OnTickDropped(signal.Drop) {}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
