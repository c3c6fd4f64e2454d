// Package telemetry records published state changes as a JSONL stream so a
// session can be reviewed or diffed after the fact. Each changed field of
// each published state becomes one line carrying a compact summary of the
// new value.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// Event is a single telemetry record.
type Event struct {
	Timestamp time.Time   `json:"ts"`
	Field     state.Field `json:"field"`
	Version   uint64      `json:"version"`
	Data      any         `json:"data,omitempty"`
}

// StateSource is where the emitter receives state changes from.
type StateSource interface {
	SubscribeAll(fn func(state.Field, *state.AggregatedState)) (cancel func())
}

// Emitter writes telemetry events as JSONL. It is safe for concurrent use.
// A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	closer io.Closer
	enc    *json.Encoder
	mu     sync.Mutex
	clock  func() time.Time
	errs   int
}

// NewEmitter creates an Emitter appending to the file at path, creating it
// if needed.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return NewWriterEmitter(f), nil
}

// NewWriterEmitter creates an Emitter writing to w. Close closes w when it
// implements io.Closer.
func NewWriterEmitter(w io.Writer) *Emitter {
	e := &Emitter{enc: json.NewEncoder(w), clock: time.Now}
	if c, ok := w.(io.Closer); ok {
		e.closer = c
	}
	return e
}

// Emit writes a single event. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.clock().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		e.errs++
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Failures returns how many events could not be written.
func (e *Emitter) Failures() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs
}

// Attach records every field change published by src until the returned
// function is called.
func (e *Emitter) Attach(src StateSource) (cancel func()) {
	return src.SubscribeAll(func(f state.Field, st *state.AggregatedState) {
		_ = e.Emit(Event{Field: f, Version: st.Version, Data: Summarize(f, st)})
	})
}

// Close closes the underlying writer. Calling Close on a nil Emitter is a
// no-op.
func (e *Emitter) Close() error {
	if e == nil || e.closer == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.closer.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
