package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
	"github.com/google/go-cmp/cmp"
)

type message struct {
	topic   string
	payload []byte
}

type fakeBroker struct {
	mu   sync.Mutex
	msgs []message
	fail error
}

func (b *fakeBroker) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.msgs = append(b.msgs, message{topic: topic, payload: append([]byte(nil), payload...)})
	return nil
}

func (b *fakeBroker) Close() {}

func (b *fakeBroker) take() []message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.msgs
	b.msgs = nil
	return out
}

func loadedState(flags snapshot.StatusFlags, fuel float64) *state.AggregatedState {
	return &state.AggregatedState{
		FirstLoadCompleted: true,
		Snapshots: snapshot.Set{Status: &snapshot.Status{
			Timestamp: time.Date(2025, 3, 1, 18, 45, 12, 0, time.UTC),
			Flags:     flags,
			Fuel:      &snapshot.Fuel{FuelMain: fuel},
			Balance:   123456789,
		}},
	}
}

func topics(msgs []message) map[string][]byte {
	out := make(map[string][]byte, len(msgs))
	for _, m := range msgs {
		out[m.topic] = m.payload
	}
	return out
}

func TestPublisher_PublishesFlagsAndStatus(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{}
	p := New(b, Config{TopicPrefix: "ed", RatePerSecond: 100, Burst: 10})
	p.HandleState(loadedState(snapshot.FlagDocked|snapshot.FlagLandingGearDown, 16))

	got := topics(b.take())
	if len(got) != len(snapshot.AllFlagNames())+1 {
		t.Fatalf("published %d topics, want %d", len(got), len(snapshot.AllFlagNames())+1)
	}

	var docked FlagMessage
	if err := json.Unmarshal(got["ed/flags/Docked"], &docked); err != nil {
		t.Fatalf("decode flag: %v", err)
	}
	want := FlagMessage{Flag: "Docked", Active: true, Timestamp: "2025-03-01T18:45:12Z"}
	if diff := cmp.Diff(want, docked); diff != "" {
		t.Errorf("flag mismatch (-want +got):\n%s", diff)
	}

	var status StatusMessage
	if err := json.Unmarshal(got["ed/status"], &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	wantStatus := StatusMessage{
		Timestamp: "2025-03-01T18:45:12Z",
		Flags:     []string{"Docked", "LandingGearDown"},
		RawFlags:  uint32(snapshot.FlagDocked | snapshot.FlagLandingGearDown),
		Fuel:      16,
		Balance:   123456789,
	}
	if diff := cmp.Diff(wantStatus, status); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestPublisher_ChangesOnly(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{}
	p := New(b, Config{RatePerSecond: 100, Burst: 10, ChangesOnly: true})

	p.HandleState(loadedState(snapshot.FlagDocked, 16))
	b.take()

	p.HandleState(loadedState(snapshot.FlagDocked, 16))
	if msgs := b.take(); len(msgs) != 0 {
		t.Errorf("unchanged state published %d messages", len(msgs))
	}

	p.HandleState(loadedState(0, 16))
	got := topics(b.take())
	if len(got) != 2 {
		t.Fatalf("published %v, want the Docked flag and status", got)
	}
	if _, ok := got["elitepanel/flags/Docked"]; !ok {
		t.Error("changed flag not published")
	}
	if _, ok := got["elitepanel/status"]; !ok {
		t.Error("changed status not published")
	}
}

func TestPublisher_RateLimitDrops(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{}
	p := New(b, Config{RatePerSecond: 0.001, Burst: 1})
	p.HandleState(loadedState(snapshot.FlagDocked, 16))
	p.HandleState(loadedState(0, 15))
	p.HandleState(loadedState(snapshot.FlagDocked, 14))

	stats := p.Stats()
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
	if stats.Published != int64(len(snapshot.AllFlagNames())+1) {
		t.Errorf("Published = %d", stats.Published)
	}
}

func TestPublisher_NothingBeforeFirstLoad(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{}
	p := New(b, Config{})
	st := loadedState(snapshot.FlagDocked, 16)
	st.FirstLoadCompleted = false
	p.HandleState(st)
	p.HandleState(&state.AggregatedState{FirstLoadCompleted: true})
	if msgs := b.take(); len(msgs) != 0 {
		t.Errorf("published %d messages before data was trusted", len(msgs))
	}
}

func TestPublisher_FailedSendRetriedNextUpdate(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{fail: errors.New("broker down")}
	p := New(b, Config{RatePerSecond: 100, Burst: 10, ChangesOnly: true})
	p.HandleState(loadedState(snapshot.FlagDocked, 16))
	if p.Stats().Failed == 0 {
		t.Fatal("failures should be counted")
	}

	b.mu.Lock()
	b.fail = nil
	b.mu.Unlock()
	p.HandleState(loadedState(snapshot.FlagDocked, 16))
	if got := topics(b.take()); len(got) != len(snapshot.AllFlagNames())+1 {
		t.Errorf("after recovery published %d topics, want all", len(got))
	}
}

// loadedStore returns a store that has read a file for every snapshot kind.
func loadedStore(t *testing.T) *snapshot.Store {
	t.Helper()
	dir := t.TempDir()
	for _, k := range snapshot.Kinds() {
		if err := os.WriteFile(filepath.Join(dir, k.FileName()), []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store := snapshot.NewStore(dir, nil)
	if err := store.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	return store
}

func TestPublisher_AttachToAggregator(t *testing.T) {
	t.Parallel()

	store := loadedStore(t)
	agg := state.New(state.Config{Snapshots: store})
	b := &fakeBroker{}
	p := New(b, Config{RatePerSecond: 100, Burst: 10})
	cancel := p.Attach(agg)
	defer cancel()

	if err := store.Replace(snapshot.KindStatus, []byte(`{"timestamp":"2025-03-01T18:45:12Z","Flags":1}`)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	agg.Recompute()

	deadline := time.Now().Add(2 * time.Second)
	got := map[string][]byte{}
	for got[p.StatusTopic()] == nil {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the status message")
		}
		time.Sleep(5 * time.Millisecond)
		for topic, payload := range topics(b.take()) {
			got[topic] = payload
		}
	}
	var docked FlagMessage
	if err := json.Unmarshal(got["elitepanel/flags/Docked"], &docked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !docked.Active {
		t.Error("Docked flag should be active")
	}
}

// stallingBroker blocks every Publish until released.
type stallingBroker struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *stallingBroker) Publish(string, []byte) error {
	b.calls.Add(1)
	<-b.release
	return nil
}

func (b *stallingBroker) Close() {}

func TestPublisher_SlowBrokerDoesNotStallRecompute(t *testing.T) {
	t.Parallel()

	store := loadedStore(t)
	agg := state.New(state.Config{Snapshots: store})
	b := &stallingBroker{release: make(chan struct{})}
	p := New(b, Config{RatePerSecond: 1000, Burst: 100})
	cancel := p.Attach(agg)

	var others atomic.Int32
	agg.Subscribe(state.FieldStatus, func(*state.AggregatedState) { others.Add(1) })

	recomputed := make(chan struct{})
	go func() {
		for i := range 5 {
			raw := fmt.Sprintf(`{"timestamp":"2025-03-01T18:45:1%dZ","Flags":%d}`, i, i+1)
			if err := store.Replace(snapshot.KindStatus, []byte(raw)); err != nil {
				t.Errorf("Replace: %v", err)
			}
			agg.Recompute()
		}
		close(recomputed)
	}()

	select {
	case <-recomputed:
	case <-time.After(2 * time.Second):
		t.Fatal("Recompute blocked on the broker")
	}
	if n := others.Load(); n != 5 {
		t.Errorf("other subscriber saw %d updates, want 5", n)
	}
	if b.calls.Load() == 0 {
		t.Error("the broker was never called")
	}

	stopped := make(chan struct{})
	go func() {
		cancel()
		close(stopped)
	}()
	close(b.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not return once the broker recovered")
	}
	if n := b.calls.Load(); n > int32(len(snapshot.AllFlagNames())+1)*2 {
		t.Errorf("broker saw %d calls; superseded states should be dropped", n)
	}
}
