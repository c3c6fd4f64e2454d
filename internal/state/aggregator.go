package state

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ledger"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
)

const (
	defaultJumpTimeout  = 60 * time.Second
	defaultCancelGrace  = 5 * time.Second
	defaultDebounce     = 16 * time.Millisecond
	defaultTickInterval = time.Second
)

// SnapshotSource provides the latest snapshot set.
type SnapshotSource interface {
	Set() snapshot.Set
}

// CargoSource provides carrier cargo totals.
type CargoSource interface {
	Snapshot() map[string]int
	Version() uint64
}

// DepotSource provides colonisation depots.
type DepotSource interface {
	Depots() []ledger.Depot
	Selected() (ledger.Depot, bool)
	Version() uint64
}

// Config wires an Aggregator to its sources. Nil sources read as empty.
type Config struct {
	Snapshots    SnapshotSource
	Cargo        CargoSource
	Colonization DepotSource

	// JumpTimeout clears a hyperspace jump whose completion event never
	// arrived.
	JumpTimeout time.Duration
	// CancelGrace is how long after StartJump the status file may show
	// neither FSD charging nor jumping before the jump counts as cancelled.
	CancelGrace time.Duration
	// Debounce coalesces bursts of Invalidate calls into one recompute.
	Debounce time.Duration
	// TickInterval is how often Run checks the jump timeout.
	TickInterval time.Duration

	Logger *slog.Logger
	Clock  func() time.Time
}

// Subscriber receives the newly published state.
type Subscriber func(*AggregatedState)

type subscription struct {
	field Field
	all   func(Field, *AggregatedState)
	one   Subscriber
}

// Aggregator owns the published AggregatedState.
type Aggregator struct {
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time

	current atomic.Pointer[AggregatedState]

	mu   sync.Mutex
	life lifecycle

	// recomputeMu serialises recomputes so notifications arrive in order.
	recomputeMu sync.Mutex

	subMu  sync.Mutex
	subs   map[int]subscription
	nextID int

	dirty chan struct{}
}

// New creates an Aggregator and publishes an initial empty state.
func New(cfg Config) *Aggregator {
	if cfg.JumpTimeout <= 0 {
		cfg.JumpTimeout = defaultJumpTimeout
	}
	if cfg.CancelGrace <= 0 {
		cfg.CancelGrace = defaultCancelGrace
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	a := &Aggregator{
		cfg:    cfg,
		logger: logger.With("component", "aggregator"),
		clock:  clock,
		subs:   make(map[int]subscription),
		dirty:  make(chan struct{}, 1),
	}
	a.current.Store(&AggregatedState{})
	return a
}

// Current returns the latest published state. It is never nil.
func (a *Aggregator) Current() *AggregatedState {
	return a.current.Load()
}

// Subscribe registers fn for changes to field. The returned function
// removes the subscription and may be called more than once.
func (a *Aggregator) Subscribe(field Field, fn Subscriber) (cancel func()) {
	return a.add(subscription{field: field, one: fn})
}

// SubscribeAll registers fn for every changed field.
func (a *Aggregator) SubscribeAll(fn func(Field, *AggregatedState)) (cancel func()) {
	return a.add(subscription{all: fn})
}

func (a *Aggregator) add(s subscription) func() {
	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = s
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
		})
	}
}

// Invalidate requests a debounced recompute from Run. It never blocks.
func (a *Aggregator) Invalidate() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

// Run recomputes after each debounced burst of Invalidate calls and checks
// the jump timeout every TickInterval, until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.TickInterval)
	defer ticker.Stop()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.dirty:
			if fire == nil {
				timer = time.NewTimer(a.cfg.Debounce)
				fire = timer.C
			}
		case <-fire:
			fire = nil
			a.Recompute()
		case <-ticker.C:
			a.Tick(a.clock())
		}
	}
}

func (a *Aggregator) snapshots() snapshot.Set {
	if a.cfg.Snapshots == nil {
		return snapshot.Set{}
	}
	return a.cfg.Snapshots.Set()
}

// Recompute builds and publishes a new state now, then notifies subscribers
// once per changed field. Nothing is published when nothing changed.
func (a *Aggregator) Recompute() {
	a.recomputeMu.Lock()
	defer a.recomputeMu.Unlock()

	next := a.build()
	prev := a.current.Load()
	changed := changedFields(prev, next)
	if len(changed) == 0 {
		return
	}
	next.Version = prev.Version + 1
	a.current.Store(next)
	a.logger.Debug("state: published", "version", next.Version, "fields", changed)
	a.notify(changed, next)
}

func (a *Aggregator) build() *AggregatedState {
	set := a.snapshots()

	a.mu.Lock()
	life := a.life
	life.location = a.life.location.clone()
	if life.target != nil {
		t := *life.target
		life.target = &t
	}
	a.mu.Unlock()

	next := &AggregatedState{
		UpdatedAt:          a.clock(),
		Snapshots:          set,
		Location:           life.location,
		FirstLoadCompleted: set.AllLoaded(),
	}
	if next.FirstLoadCompleted {
		next.IsHyperspaceJumping = life.jumping
		next.JumpTarget = life.target
		next.IsDocking = life.docking
	}

	if a.cfg.Cargo != nil {
		// Read the version first so a concurrent change is caught by the
		// next recompute rather than lost.
		next.cargoVersion = a.cfg.Cargo.Version()
		next.CarrierCargo = a.cfg.Cargo.Snapshot()
	}
	if next.CarrierCargo == nil {
		next.CarrierCargo = map[string]int{}
	}
	if a.cfg.Colonization != nil {
		next.depotVersion = a.cfg.Colonization.Version()
		next.Depots = a.cfg.Colonization.Depots()
		if d, ok := a.cfg.Colonization.Selected(); ok {
			next.SelectedDepot = &d
		}
	}
	return next
}

func (a *Aggregator) notify(changed []Field, st *AggregatedState) {
	a.subMu.Lock()
	subs := make([]subscription, 0, len(a.subs))
	for _, s := range a.subs {
		subs = append(subs, s)
	}
	a.subMu.Unlock()

	for _, f := range changed {
		for _, s := range subs {
			switch {
			case s.all != nil:
				s.all(f, st)
			case s.field == f:
				s.one(st)
			}
		}
	}
}
