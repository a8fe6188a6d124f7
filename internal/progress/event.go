package progress

import (
	"sync"

	"github.com/backmassage/clipsmith/internal/logging"
)

// Status is the stage a segment is in when an event is emitted.
type Status string

const (
	StatusCutting     Status = "cutting"
	StatusAddingIntro Status = "adding-intro"
	StatusCompressing Status = "compressing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Event is one progress notification. Index is zero-based.
type Event struct {
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	Status        Status   `json:"status"`
	Progress      float64  `json:"progress"`
	EstimatedTime *float64 `json:"estimated_time,omitempty"` // Seconds remaining in the batch.
}

// Sink receives events. Emit must not block the caller for long and never
// reports delivery failure; events are fire-and-forget.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Multi fans each event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// LogSink writes each event to a logger at debug level, and failures at warn.
type LogSink struct {
	Log *logging.Logger
}

// Emit implements Sink.
func (s LogSink) Emit(e Event) {
	if e.Status == StatusFailed {
		s.Log.Warn("segment %d/%d failed", e.Index+1, e.Total)
		return
	}
	if e.EstimatedTime != nil {
		s.Log.Debug("segment %d/%d %s %.0f%% (~%.0fs left)", e.Index+1, e.Total, e.Status, e.Progress, *e.EstimatedTime)
		return
	}
	s.Log.Debug("segment %d/%d %s %.0f%%", e.Index+1, e.Total, e.Status, e.Progress)
}

// Recorder is a Sink that keeps every event; safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Seconds returns a pointer to v, for EstimatedTime.
func Seconds(v float64) *float64 { return &v }
