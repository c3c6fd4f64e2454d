package engine

import (
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ledger"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// State returns the latest published state. It is never nil and must not be
// modified.
func (e *Engine) State() *state.AggregatedState {
	return e.aggregator.Current()
}

// Subscribe registers fn for changes to field.
func (e *Engine) Subscribe(field state.Field, fn state.Subscriber) (cancel func()) {
	return e.aggregator.Subscribe(field, fn)
}

// SubscribeAll registers fn for every changed field.
func (e *Engine) SubscribeAll(fn func(state.Field, *state.AggregatedState)) (cancel func()) {
	return e.aggregator.SubscribeAll(fn)
}

// Plan annotates the current route against the current loadout and fuel.
func (e *Engine) Plan() (navigation.RoutePlan, error) {
	return e.planner.Plan(e.aggregator.Current())
}

// ForceRefreshCarrier replaces the carrier cargo totals wholesale, for when
// the user knows the ledger has drifted from the game.
func (e *Engine) ForceRefreshCarrier(entries map[string]int) {
	e.cargo.Reset(entries)
	e.aggregator.Recompute()
	e.logger.Info("engine: carrier cargo reset", "commodities", len(entries))
}

// ResetColonization forgets every tracked depot.
func (e *Engine) ResetColonization() {
	e.colonization.Reset()
	e.aggregator.Recompute()
	e.logger.Info("engine: colonisation depots reset")
}

// SelectDepot pins the depot shown as selected. Zero returns to following
// the most recently updated depot.
func (e *Engine) SelectDepot(marketID int64) error {
	if err := e.colonization.Select(marketID); err != nil {
		return err
	}
	e.aggregator.Recompute()
	return nil
}

// Depots returns every tracked colonisation depot.
func (e *Engine) Depots() []ledger.Depot {
	return e.colonization.Depots()
}

// Tables returns the drive tables used for planning.
func (e *Engine) Tables() *navigation.Tables {
	return e.planner.Tables()
}

// Replay feeds every event of the journal file at path through the engine
// and publishes the result, for one-shot readers that start without the
// session's history. It returns the number of events read. Events already
// seen are not applied twice.
func (e *Engine) Replay(path string) (int, error) {
	n := 0
	_, err := journal.ReadAll(path, func(evt journal.Event) {
		n++
		e.dispatch(evt)
	})
	e.aggregator.Tick(e.clock())
	e.aggregator.Recompute()
	if err != nil {
		return n, err
	}
	e.logger.Debug("engine: replayed journal", "file", path, "events", n)
	return n, nil
}
