package telemetry

import (
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// StatusSummary is the recorded form of a status change.
type StatusSummary struct {
	Flags    []string `json:"flags"`
	FuelMain float64  `json:"fuel_main"`
	Balance  int64    `json:"balance"`
}

// JumpSummary is the recorded form of a jump state change.
type JumpSummary struct {
	Jumping bool   `json:"jumping"`
	Target  string `json:"target,omitempty"`
}

// DepotSummary is the recorded form of a colonisation change.
type DepotSummary struct {
	Depots    int     `json:"depots"`
	Selected  int64   `json:"selected,omitempty"`
	Progress  float64 `json:"progress,omitempty"`
	Remaining int     `json:"remaining,omitempty"`
}

// Summarize returns a compact, JSON-encodable view of field in st. Fields
// without a useful summary return nil.
func Summarize(field state.Field, st *state.AggregatedState) any {
	if st == nil {
		return nil
	}
	snaps := st.Snapshots
	switch field {
	case state.FieldStatus:
		s := snaps.Status
		if s == nil {
			return nil
		}
		out := StatusSummary{Flags: s.FlagNames(), Balance: s.Balance}
		if s.Fuel != nil {
			out.FuelMain = s.Fuel.FuelMain
		}
		return out
	case state.FieldCargo:
		if snaps.Cargo == nil {
			return nil
		}
		return map[string]int{"count": snaps.Cargo.Count, "lines": len(snaps.Cargo.Inventory)}
	case state.FieldRoute:
		if snaps.Route == nil {
			return map[string]int{"hops": 0}
		}
		return map[string]int{"hops": len(snaps.Route.Route)}
	case state.FieldLoadout:
		if snaps.Loadout == nil {
			return nil
		}
		return map[string]string{"ship": snaps.Loadout.Ship}
	case state.FieldCarrierCargo:
		return st.CarrierCargo
	case state.FieldColonization:
		out := DepotSummary{Depots: len(st.Depots)}
		if d := st.SelectedDepot; d != nil {
			out.Selected = d.MarketID
			out.Progress = d.Progress
			out.Remaining = d.Remaining()
		}
		return out
	case state.FieldLocation:
		return st.Location
	case state.FieldJumping:
		out := JumpSummary{Jumping: st.IsHyperspaceJumping}
		if st.JumpTarget != nil {
			out.Target = st.JumpTarget.StarSystem
		}
		return out
	case state.FieldDocking:
		return map[string]bool{"docking": st.IsDocking}
	case state.FieldFirstLoad:
		return map[string]bool{"completed": st.FirstLoadCompleted}
	}
	return nil
}
