// Package state merges the snapshot files, the carrier and colonisation
// ledgers, and the journal's lifecycle events into one AggregatedState. A new
// state is built on every recompute and published by pointer swap; a reader
// holding a *AggregatedState always sees a consistent value.
package state

import (
	"maps"
	"slices"
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ledger"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
)

// Field names one logically distinct part of the published state.
// Subscribers are notified per field.
type Field string

// Published fields.
const (
	FieldStatus       Field = "status"
	FieldCargo        Field = "cargo"
	FieldRoute        Field = "route"
	FieldBackpack     Field = "backpack"
	FieldLoadout      Field = "loadout"
	FieldCarrierCargo Field = "carrier_cargo"
	FieldColonization Field = "colonization"
	FieldLocation     Field = "location"
	FieldJumping      Field = "jumping"
	FieldDocking      Field = "docking"
	FieldFirstLoad    Field = "first_load"
)

// Fields lists every field in notification order.
func Fields() []Field {
	return []Field{
		FieldStatus, FieldCargo, FieldRoute, FieldBackpack, FieldLoadout,
		FieldCarrierCargo, FieldColonization, FieldLocation,
		FieldJumping, FieldDocking, FieldFirstLoad,
	}
}

// snapshotFields maps snapshot kinds onto their published fields.
var snapshotFields = [...]struct {
	kind  snapshot.Kind
	field Field
}{
	{snapshot.KindStatus, FieldStatus},
	{snapshot.KindCargo, FieldCargo},
	{snapshot.KindRoute, FieldRoute},
	{snapshot.KindBackpack, FieldBackpack},
	{snapshot.KindLoadout, FieldLoadout},
}

// Location is where the commander is, as last reported by the journal.
type Location struct {
	StarSystem    string
	SystemAddress int64
	StarPos       []float64
	Body          string
	Docked        bool
	StationName   string
}

// HasPosition reports whether StarPos holds galactic coordinates.
func (l Location) HasPosition() bool { return len(l.StarPos) == 3 }

func (l Location) equal(o Location) bool {
	return l.StarSystem == o.StarSystem &&
		l.SystemAddress == o.SystemAddress &&
		slices.Equal(l.StarPos, o.StarPos) &&
		l.Body == o.Body &&
		l.Docked == o.Docked &&
		l.StationName == o.StationName
}

func (l Location) clone() Location {
	l.StarPos = slices.Clone(l.StarPos)
	return l
}

// JumpTarget is the destination announced by a hyperspace StartJump.
type JumpTarget struct {
	StarSystem    string
	SystemAddress int64
	StarClass     string
}

// AggregatedState is the single published view of the commander's state.
// It is never mutated after publication.
type AggregatedState struct {
	Version   uint64
	UpdatedAt time.Time

	Snapshots     snapshot.Set
	CarrierCargo  map[string]int
	Depots        []ledger.Depot
	SelectedDepot *ledger.Depot
	Location      Location

	// Derived flags. All are false until FirstLoadCompleted.
	IsHyperspaceJumping bool
	JumpTarget          *JumpTarget
	IsDocking           bool
	FirstLoadCompleted  bool

	cargoVersion uint64
	depotVersion uint64
}

// Status is a shortcut for Snapshots.Status.
func (s *AggregatedState) Status() *snapshot.Status {
	if s == nil {
		return nil
	}
	return s.Snapshots.Status
}

// changedFields lists the fields that differ between prev and next.
func changedFields(prev, next *AggregatedState) []Field {
	var out []Field
	for _, sf := range snapshotFields {
		if prev.Snapshots.Version(sf.kind) != next.Snapshots.Version(sf.kind) ||
			prev.Snapshots.Loaded(sf.kind) != next.Snapshots.Loaded(sf.kind) {
			out = append(out, sf.field)
		}
	}
	if prev.cargoVersion != next.cargoVersion && !maps.Equal(prev.CarrierCargo, next.CarrierCargo) {
		out = append(out, FieldCarrierCargo)
	}
	if prev.depotVersion != next.depotVersion {
		out = append(out, FieldColonization)
	}
	if !prev.Location.equal(next.Location) {
		out = append(out, FieldLocation)
	}
	if prev.IsHyperspaceJumping != next.IsHyperspaceJumping || !targetEqual(prev.JumpTarget, next.JumpTarget) {
		out = append(out, FieldJumping)
	}
	if prev.IsDocking != next.IsDocking {
		out = append(out, FieldDocking)
	}
	if prev.FirstLoadCompleted != next.FirstLoadCompleted {
		out = append(out, FieldFirstLoad)
	}
	return out
}

func targetEqual(a, b *JumpTarget) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
