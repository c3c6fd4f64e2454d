package tui

import (
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// MsgState carries a newly published state and the route plan computed
// from it. PlanErr is set when no plan could be made.
type MsgState struct {
	State   *state.AggregatedState
	Plan    *navigation.RoutePlan
	PlanErr error
}

// MsgDepotSelected reports the outcome of cycling the pinned depot.
type MsgDepotSelected struct {
	MarketID int64
	Err      error
}
