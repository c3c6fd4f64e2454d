// Package engine wires the snapshot store, journal tailer, ledgers,
// aggregator and planner into one running instance. Consumers hold an
// *Engine and read published state through it; nothing is process-global.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ledger"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/publish"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// loadoutSearchFiles bounds how many journals recoverLoadout reads.
const loadoutSearchFiles = 3

// ErrNoJournalDir is returned by New when Config.JournalDir is empty.
var ErrNoJournalDir = errors.New("engine: journal directory not set")

// Config holds the tunables of one engine. Zero durations fall back to each
// component's default.
type Config struct {
	JournalDir       string
	PollInterval     time.Duration
	CatchupWindow    time.Duration
	CatchupTailBytes int64
	SnapshotDebounce time.Duration
	JumpTimeout      time.Duration
	Debounce         time.Duration
	DedupeWindow     int
}

// Engine owns every running component.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time
	tables *navigation.Tables

	store        *snapshot.Store
	watcher      *snapshot.Watcher
	tailer       *journal.Tailer
	cargo        *ledger.CargoLedger
	colonization *ledger.ColonizationTracker
	aggregator   *state.Aggregator
	planner      *navigation.Planner
	publisher    *publish.Publisher

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	detach    func()
	wg        sync.WaitGroup
}

// New builds an engine for cfg. Nothing touches the filesystem until Start.
// A nil logger discards.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg.JournalDir == "" {
		return nil, ErrNoJournalDir
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		cfg:    cfg,
		logger: logger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	planner, err := navigation.NewPlanner(e.tables)
	if err != nil {
		return nil, fmt.Errorf("engine: drive tables: %w", err)
	}
	e.planner = planner

	e.store = snapshot.NewStore(cfg.JournalDir, logger)
	e.watcher = snapshot.NewWatcher(e.store, snapshot.WatcherConfig{
		Debounce: cfg.SnapshotDebounce,
		Logger:   logger,
	})
	e.tailer = journal.NewTailer(journal.TailerConfig{
		Dir:              cfg.JournalDir,
		PollInterval:     cfg.PollInterval,
		CatchupWindow:    cfg.CatchupWindow,
		CatchupTailBytes: cfg.CatchupTailBytes,
		Kinds:            journal.RecognizedKinds(),
		Logger:           logger,
		Clock:            e.clock,
	})
	e.cargo = ledger.NewCargoLedger(cfg.DedupeWindow)
	e.colonization = ledger.NewColonizationTracker(cfg.DedupeWindow)
	e.aggregator = state.New(state.Config{
		Snapshots:    e.store,
		Cargo:        e.cargo,
		Colonization: e.colonization,
		JumpTimeout:  cfg.JumpTimeout,
		Debounce:     cfg.Debounce,
		Logger:       logger,
		Clock:        e.clock,
	})
	e.store.OnChange(func(snapshot.Kind) { e.aggregator.Invalidate() })
	return e, nil
}

// Start loads every snapshot, begins tailing the journal and runs the
// aggregator until ctx is cancelled or Stop is called. A second call is a
// no-op.
func (e *Engine) Start(ctx context.Context) error {
	var err error
	e.startOnce.Do(func() {
		ctx, e.cancel = context.WithCancel(ctx)

		if err = e.watcher.Start(ctx); err != nil {
			err = fmt.Errorf("engine: snapshots: %w", err)
			return
		}
		e.recoverLoadout()
		if err = e.tailer.Start(ctx); err != nil {
			e.watcher.Stop()
			err = fmt.Errorf("engine: journal: %w", err)
			return
		}
		if e.publisher != nil {
			e.detach = e.publisher.Attach(e.aggregator)
		}

		// The watcher's initial load already happened; publish it now rather
		// than after the first debounce.
		e.aggregator.Recompute()

		e.wg.Add(2)
		go func() {
			defer e.wg.Done()
			e.aggregator.Run(ctx)
		}()
		go func() {
			defer e.wg.Done()
			e.pump(ctx)
		}()
		e.logger.Info("engine: started", "dir", e.cfg.JournalDir)
	})
	return err
}

// Stop halts every component and waits for their goroutines. It is safe to
// call more than once, and before Start.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
		}
		e.tailer.Stop()
		e.watcher.Stop()
		e.wg.Wait()
		if e.detach != nil {
			e.detach()
		}
		e.logger.Info("engine: stopped")
	})
}

// recoverLoadout seeds the loadout from the newest Loadout event in the
// journals when no Loadout.json was read. The game writes that event once per
// session, usually long before the catch-up window.
func (e *Engine) recoverLoadout() {
	if e.store.Set().Loaded(snapshot.KindLoadout) {
		return
	}
	evt, ok, err := journal.LastOfKind(e.cfg.JournalDir, journal.KindLoadout, loadoutSearchFiles)
	if err != nil {
		e.logger.Debug("engine: no journal to recover the loadout from", "error", err)
		return
	}
	if !ok {
		return
	}
	if err := e.store.Replace(snapshot.KindLoadout, evt.Raw); err != nil {
		e.logger.Warn("engine: journal loadout not applied", "file", evt.Source.File, "offset", evt.Source.Offset, "error", err)
		return
	}
	e.logger.Info("engine: loadout recovered from journal", "file", evt.Source.File)
}

func (e *Engine) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.tailer.Done():
			return
		case evt := <-e.tailer.Events():
			e.dispatch(evt)
		}
	}
}

// dispatch routes one journal event to every component that consumes it.
func (e *Engine) dispatch(evt journal.Event) {
	changed := e.cargo.Apply(evt)
	if e.colonization.Apply(evt) {
		changed = true
	}
	if evt.Kind == journal.KindLoadout {
		if err := e.store.Replace(snapshot.KindLoadout, evt.Raw); err != nil {
			e.logger.Warn("engine: loadout event not applied", "file", evt.Source.File, "offset", evt.Source.Offset, "error", err)
		}
	}
	e.aggregator.HandleEvent(evt)
	if changed {
		e.aggregator.Invalidate()
	}
}
