package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// Source is what the bridge reads published state from.
type Source interface {
	State() *state.AggregatedState
	SubscribeAll(fn func(state.Field, *state.AggregatedState)) (cancel func())
	Plan() (navigation.RoutePlan, error)
}

// Bridge forwards published state into a running program as MsgState.
// Subscriber callbacks never wait on the program: only the newest pending
// state is kept and a single goroutine delivers it, so a recompute that
// changes several fields reaches the view once.
type Bridge struct {
	src  Source
	send func(tea.Msg)

	pending chan *state.AggregatedState
	done    chan struct{}

	mu          sync.Mutex
	lastVersion uint64
	cancel      func()
	startOnce   sync.Once
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewBridge creates a bridge delivering to send, usually (*tea.Program).Send.
func NewBridge(src Source, send func(tea.Msg)) *Bridge {
	return &Bridge{
		src:     src,
		send:    send,
		pending: make(chan *state.AggregatedState, 1),
		done:    make(chan struct{}),
	}
}

// Snapshot builds the message for the source's current state. Later
// updates at or below its version are not forwarded.
func (b *Bridge) Snapshot() MsgState {
	st := b.src.State()
	b.mu.Lock()
	if st.Version > b.lastVersion {
		b.lastVersion = st.Version
	}
	b.mu.Unlock()
	return b.message(st)
}

// Start subscribes to the source and begins delivering.
func (b *Bridge) Start() {
	b.startOnce.Do(func() {
		cancel := b.src.SubscribeAll(func(_ state.Field, st *state.AggregatedState) {
			b.offer(st)
		})
		b.mu.Lock()
		b.cancel = cancel
		b.mu.Unlock()

		b.wg.Add(1)
		go b.deliver()
	})
}

// Stop ends the subscription and the delivery goroutine. It is safe to call
// more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		cancel := b.cancel
		b.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		close(b.done)
	})
	b.wg.Wait()
}

// offer replaces any undelivered state with st.
func (b *Bridge) offer(st *state.AggregatedState) {
	if st == nil {
		return
	}
	for {
		select {
		case b.pending <- st:
			return
		default:
		}
		select {
		case <-b.pending:
		default:
		}
	}
}

func (b *Bridge) deliver() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case st := <-b.pending:
			b.mu.Lock()
			stale := st.Version <= b.lastVersion
			if !stale {
				b.lastVersion = st.Version
			}
			b.mu.Unlock()
			if !stale {
				b.send(b.message(st))
			}
		}
	}
}

func (b *Bridge) message(st *state.AggregatedState) MsgState {
	msg := MsgState{State: st}
	plan, err := b.src.Plan()
	if err != nil {
		msg.PlanErr = err
	} else {
		msg.Plan = &plan
	}
	return msg
}
