package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ledger"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// recorded decodes the JSONL file at path.
func recorded(t *testing.T, path string) []Event {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var out []Event
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %q is not an Event: %v", sc.Text(), err)
		}
		out = append(out, ev)
	}
	return out
}

func TestNewEmitter_FileLifecycle(t *testing.T) {
	t.Parallel()

	if _, err := NewEmitter(filepath.Join(t.TempDir(), "missing", "run.jsonl")); err == nil ||
		!strings.Contains(err.Error(), "telemetry: open") {
		t.Fatalf("NewEmitter in a missing dir: err = %v, want telemetry: open", err)
	}

	path := filepath.Join(t.TempDir(), "run.jsonl")
	at := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	sessions := [][]Event{
		{
			{Timestamp: at, Field: state.FieldFirstLoad, Version: 1},
			{Timestamp: at.Add(time.Minute), Field: state.FieldJumping, Version: 2, Data: JumpSummary{Jumping: true, Target: "Colonia"}},
		},
		{
			{Timestamp: at.Add(2 * time.Minute), Field: state.FieldJumping, Version: 3},
		},
	}
	for i, batch := range sessions {
		em, err := NewEmitter(path)
		if err != nil {
			t.Fatalf("session %d: NewEmitter: %v", i, err)
		}
		for _, ev := range batch {
			if err := em.Emit(ev); err != nil {
				t.Fatalf("session %d: Emit %s: %v", i, ev.Field, err)
			}
		}
		if err := em.Close(); err != nil {
			t.Fatalf("session %d: Close: %v", i, err)
		}
	}

	type key struct {
		Field   state.Field
		Version uint64
	}
	var got []key
	for _, ev := range recorded(t, path) {
		got = append(got, key{ev.Field, ev.Version})
	}
	want := []key{{state.FieldFirstLoad, 1}, {state.FieldJumping, 2}, {state.FieldJumping, 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recorded events mismatch (-want +got):\n%s", diff)
	}
}

func TestEmit_ParallelWriters(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "parallel.jsonl")
	em, err := NewEmitter(path)
	if err != nil {
		t.Fatal(err)
	}

	const writers = 64
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ev := Event{Field: state.FieldCarrierCargo, Version: uint64(w), Data: map[string]int{"tritium": w}}
			if err := em.Emit(ev); err != nil {
				t.Errorf("writer %d: %v", w, err)
			}
		}()
	}
	wg.Wait()
	if err := em.Close(); err != nil {
		t.Fatal(err)
	}

	seen := map[uint64]bool{}
	for _, ev := range recorded(t, path) {
		seen[ev.Version] = true
	}
	if len(seen) != writers {
		t.Errorf("recorded %d distinct versions, want %d", len(seen), writers)
	}
}

func TestEmit_StampsMissingTimestamp(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	em := NewWriterEmitter(&buf)
	em.clock = func() time.Time { return time.Date(2025, 3, 1, 18, 45, 12, 0, time.UTC) }
	if err := em.Emit(Event{Field: state.FieldDocking}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(buf.String(), `"ts":"2025-03-01T18:45:12Z"`) {
		t.Errorf("line = %s, want stamped timestamp", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEmit_CountsFailures(t *testing.T) {
	t.Parallel()

	em := NewWriterEmitter(failingWriter{})
	if err := em.Emit(Event{Field: state.FieldStatus}); err == nil {
		t.Fatal("expected error from failing writer")
	}
	if got := em.Failures(); got != 1 {
		t.Errorf("Failures() = %d, want 1", got)
	}
	if err := em.Close(); err != nil {
		t.Errorf("Close on a non-closer: %v", err)
	}
}

func TestEmitter_NilIsDisabled(t *testing.T) {
	t.Parallel()

	var em *Emitter
	if err := em.Emit(Event{Field: state.FieldStatus}); err != nil {
		t.Errorf("Emit on nil emitter = %v", err)
	}
	if err := em.Close(); err != nil {
		t.Errorf("Close on nil emitter = %v", err)
	}
	if n := em.Failures(); n != 0 {
		t.Errorf("Failures on nil emitter = %d", n)
	}
}

// fakeSource hands every change straight to the subscriber.
type fakeSource struct {
	fn func(state.Field, *state.AggregatedState)
}

func (f *fakeSource) SubscribeAll(fn func(state.Field, *state.AggregatedState)) func() {
	f.fn = fn
	return func() { f.fn = nil }
}

func TestAttach_RecordsEachField(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	em := NewWriterEmitter(&buf)
	src := &fakeSource{}
	cancel := em.Attach(src)

	st := &state.AggregatedState{
		Version:             7,
		IsHyperspaceJumping: true,
		JumpTarget:          &state.JumpTarget{StarSystem: "Colonia"},
		CarrierCargo:        map[string]int{"tritium": 400},
	}
	src.fn(state.FieldJumping, st)
	src.fn(state.FieldCarrierCargo, st)
	cancel()
	if src.fn != nil {
		t.Fatal("cancel should unsubscribe")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"field":"jumping"`) || !strings.Contains(lines[0], `"target":"Colonia"`) {
		t.Errorf("jump line = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"tritium":400`) || !strings.Contains(lines[1], `"version":7`) {
		t.Errorf("cargo line = %s", lines[1])
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	depot := ledger.Depot{
		MarketID: 42,
		Progress: 0.25,
		Resources: []ledger.ResourceRequirement{
			{Name: "steel", Required: 100, Provided: 10},
		},
	}
	st := &state.AggregatedState{
		Snapshots: snapshot.Set{
			Status: &snapshot.Status{
				Flags:   snapshot.FlagDocked | snapshot.FlagShieldsUp,
				Fuel:    &snapshot.Fuel{FuelMain: 12.5},
				Balance: 1000,
			},
			Route: &snapshot.NavRoute{Route: make([]snapshot.RouteEntry, 3)},
		},
		Depots:        []ledger.Depot{depot},
		SelectedDepot: &depot,
		IsDocking:     true,
	}

	tests := []struct {
		field state.Field
		want  any
	}{
		{state.FieldStatus, StatusSummary{Flags: []string{"Docked", "ShieldsUp"}, FuelMain: 12.5, Balance: 1000}},
		{state.FieldRoute, map[string]int{"hops": 3}},
		{state.FieldColonization, DepotSummary{Depots: 1, Selected: 42, Progress: 0.25, Remaining: 90}},
		{state.FieldDocking, map[string]bool{"docking": true}},
		{state.FieldLoadout, nil},
		{state.FieldBackpack, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, Summarize(tt.field, st)); diff != "" {
				t.Errorf("Summarize(%s) mismatch (-want +got):\n%s", tt.field, diff)
			}
		})
	}

	if Summarize(state.FieldStatus, nil) != nil {
		t.Error("Summarize of a nil state should be nil")
	}
}
