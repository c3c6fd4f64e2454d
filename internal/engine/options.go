package engine

import (
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/publish"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for every component the engine builds.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithPublisher forwards status changes to p while the engine runs. The
// caller owns p's broker and closes it after Stop.
func WithPublisher(p *publish.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithTables plans with t instead of the built-in drive tables.
func WithTables(t *navigation.Tables) Option {
	return func(e *Engine) { e.tables = t }
}
