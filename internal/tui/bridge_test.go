package tui

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

type fakeSource struct {
	mu      sync.Mutex
	current *state.AggregatedState
	subs    []func(state.Field, *state.AggregatedState)
	planErr error
}

func (f *fakeSource) State() *state.AggregatedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeSource) SubscribeAll(fn func(state.Field, *state.AggregatedState)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	idx := len(f.subs) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.subs[idx] = nil
	}
}

func (f *fakeSource) Plan() (navigation.RoutePlan, error) {
	if f.planErr != nil {
		return navigation.RoutePlan{}, f.planErr
	}
	return navigation.RoutePlan{StartFuel: 16}, nil
}

// publish mimics the aggregator: one callback per changed field.
func (f *fakeSource) publish(st *state.AggregatedState, fields ...state.Field) {
	f.mu.Lock()
	f.current = st
	subs := append([]func(state.Field, *state.AggregatedState){}, f.subs...)
	f.mu.Unlock()
	for _, field := range fields {
		for _, fn := range subs {
			if fn != nil {
				fn(field, st)
			}
		}
	}
}

type recorder struct {
	mu   sync.Mutex
	msgs []MsgState
}

func (r *recorder) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg.(MsgState))
}

func (r *recorder) versions() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.State.Version
	}
	return out
}

func waitForVersion(t *testing.T, r *recorder, v uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.versions(); len(got) > 0 && got[len(got)-1] == v {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("version %d never delivered, got %v", v, r.versions())
}

func TestBridge_SnapshotCarriesPlan(t *testing.T) {
	t.Parallel()
	src := &fakeSource{current: &state.AggregatedState{Version: 4}}
	b := NewBridge(src, func(tea.Msg) {})
	msg := b.Snapshot()
	if msg.State.Version != 4 || msg.Plan == nil || msg.Plan.StartFuel != 16 {
		t.Errorf("Snapshot() = %+v", msg)
	}

	src.planErr = navigation.ErrNotReady
	if msg := b.Snapshot(); msg.Plan != nil || msg.PlanErr != navigation.ErrNotReady {
		t.Errorf("Snapshot() with plan error = %+v", msg)
	}
}

func TestBridge_ForwardsOncePerVersion(t *testing.T) {
	t.Parallel()
	src := &fakeSource{current: &state.AggregatedState{Version: 1}}
	rec := &recorder{}
	b := NewBridge(src, rec.send)
	b.Snapshot()
	b.Start()
	defer b.Stop()

	src.publish(&state.AggregatedState{Version: 2}, state.FieldStatus, state.FieldLocation, state.FieldJumping)
	waitForVersion(t, rec, 2)

	// A stale redelivery is not forwarded.
	src.publish(&state.AggregatedState{Version: 1}, state.FieldStatus)
	src.publish(&state.AggregatedState{Version: 3}, state.FieldCargo)
	waitForVersion(t, rec, 3)

	for _, v := range rec.versions() {
		if v == 1 {
			t.Errorf("stale version forwarded: %v", rec.versions())
		}
	}
	seen := map[uint64]int{}
	for _, v := range rec.versions() {
		seen[v]++
	}
	if seen[2] != 1 {
		t.Errorf("version 2 forwarded %d times, want once", seen[2])
	}
}

func TestBridge_StopUnsubscribes(t *testing.T) {
	t.Parallel()
	src := &fakeSource{current: &state.AggregatedState{}}
	rec := &recorder{}
	b := NewBridge(src, rec.send)
	b.Start()
	b.Stop()
	b.Stop()

	src.publish(&state.AggregatedState{Version: 5}, state.FieldStatus)
	time.Sleep(20 * time.Millisecond)
	if got := rec.versions(); len(got) != 0 {
		t.Errorf("delivered after Stop: %v", got)
	}
}
