package navigation

import (
	"math"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// HopAnnotation describes one jump of a route.
type HopAnnotation struct {
	TargetSystem  string
	SystemAddress int64
	StarClass     string
	DistanceLy    float64
	FuelCost      float64
	// FuelAfter is the main tank balance after the hop; for an unreachable
	// hop it is the balance at the last reachable one.
	FuelAfter       float64
	Reachable       bool
	Scoopable       bool
	RefuelAdvised   bool
	MissingPosition bool
	// ExceedsRange is set when the hop is longer than the current range.
	ExceedsRange bool
}

// RoutePlan is a freshly computed annotation of a route.
type RoutePlan struct {
	Drive         Drive
	Range         RangeInfo
	StartFuel     float64
	Hops          []HopAnnotation
	TotalDistance float64
	ReachableHops int
}

// Planner plans routes against a set of drive tables.
type Planner struct {
	tables *Tables
}

// NewPlanner returns a planner using tables, or the built-in tables when
// tables is nil.
func NewPlanner(tables *Tables) (*Planner, error) {
	if tables == nil {
		t, err := LoadTables()
		if err != nil {
			return nil, err
		}
		tables = t
	} else if err := tables.normalize(); err != nil {
		return nil, err
	}
	return &Planner{tables: tables}, nil
}

// Tables returns the planner's drive tables.
func (p *Planner) Tables() *Tables { return p.tables }

// Plan plans the route and loadout held in st.
func (p *Planner) Plan(st *state.AggregatedState) (RoutePlan, error) {
	if st == nil {
		return RoutePlan{}, ErrNotReady
	}
	return p.PlanRoute(st, st.Snapshots.Loadout, st.Snapshots.Route)
}

// PlanRoute annotates route hop by hop starting from the commander's current
// location and fuel in st. Inputs are not modified.
func (p *Planner) PlanRoute(st *state.AggregatedState, loadout *snapshot.Loadout, route *snapshot.NavRoute) (RoutePlan, error) {
	if st == nil || !st.FirstLoadCompleted {
		return RoutePlan{}, ErrNotReady
	}
	drive, err := p.tables.ResolveDrive(loadout)
	if err != nil {
		return RoutePlan{}, err
	}

	var fuelMain, fuelReserve float64
	if status := st.Status(); status != nil && status.Fuel != nil {
		fuelMain = status.Fuel.FuelMain
		fuelReserve = status.Fuel.FuelReservoir
	} else {
		fuelMain = loadout.FuelCapacity.Main
	}
	cargo := float64(st.Snapshots.Cargo.Tons())
	if status := st.Status(); status != nil && status.Cargo > 0 {
		cargo = status.Cargo
	}

	plan := RoutePlan{
		Drive:     drive,
		Range:     Ranges(drive, loadout, cargo, fuelMain, fuelReserve),
		StartFuel: fuelMain,
	}
	if route == nil || len(route.Route) == 0 {
		return plan, nil
	}

	entries := route.Route
	origin := st.Location.StarPos
	if at := currentIndex(entries, st.Location); at >= 0 {
		// NavRoute.json keeps the whole plotted route while it is flown;
		// hops up to and including the current system are behind us.
		if !st.Location.HasPosition() && entries[at].HasPosition() {
			origin = entries[at].StarPos
		}
		entries = entries[at+1:]
	} else if !st.Location.HasPosition() {
		// Without a known position the first entry is the starting point.
		origin = entries[0].StarPos
		entries = entries[1:]
	}

	hops := make([]HopAnnotation, len(entries))
	prev := origin
	balance := fuelMain
	for i, e := range entries {
		h := HopAnnotation{
			TargetSystem:  e.StarSystem,
			SystemAddress: e.SystemAddress,
			StarClass:     e.StarClass,
			Scoopable:     p.tables.IsScoopable(e.StarClass),
		}
		if len(prev) != 3 || !e.HasPosition() {
			h.MissingPosition = true
		} else {
			h.DistanceLy = distance(prev, e.StarPos)
			mass := loadout.UnladenMass + cargo + math.Max(balance, 0) + fuelReserve
			h.FuelCost = FuelForDistance(drive, h.DistanceLy, mass, plan.Range.Factor, p.tables.EfficiencyFactor)
			h.ExceedsRange = h.DistanceLy > JumpRange(drive, drive.MaxFuelPerJump, mass)*plan.Range.Factor
			balance -= h.FuelCost
			plan.TotalDistance += h.DistanceLy
		}
		if e.HasPosition() {
			prev = e.StarPos
		}
		hops[i] = h
	}

	plan.ReachableHops = annotateHops(hops, fuelMain, p.tables.SafetyMargin)
	plan.Hops = hops
	return plan, nil
}

// annotateHops fills reachability, running balance and refuel advice into
// hops whose FuelCost and Scoopable are already set. It returns the number
// of reachable hops.
func annotateHops(hops []HopAnnotation, start, margin float64) int {
	costs := make([]float64, len(hops))
	for i := range hops {
		costs[i] = hops[i].FuelCost
	}
	reachable := 0
	for i, s := range walkRoute(start, costs, margin) {
		hops[i].Reachable = s.reachable
		hops[i].FuelAfter = s.balance
		if s.reachable {
			reachable++
		}
	}
	for i := 0; i+1 < len(hops); i++ {
		h := &hops[i]
		if h.Reachable && h.Scoopable && !affordable(h.FuelAfter, hops[i+1].FuelCost, margin) {
			h.RefuelAdvised = true
		}
	}
	return reachable
}

type step struct {
	reachable bool
	balance   float64
}

// walkRoute deducts each hop's cost from a running balance. Once a hop is
// unaffordable it and every later hop are unreachable, and the balance stops
// changing.
func walkRoute(start float64, costs []float64, margin float64) []step {
	out := make([]step, len(costs))
	balance := start
	blocked := false
	for i, c := range costs {
		if !blocked && !affordable(balance, c, margin) {
			blocked = true
		}
		if blocked {
			out[i] = step{balance: balance}
			continue
		}
		balance -= c
		out[i] = step{reachable: true, balance: balance}
	}
	return out
}

// affordable reports whether cost can be paid from balance leaving margin.
// Zero-cost hops are always affordable.
func affordable(balance, cost, margin float64) bool {
	if cost <= 0 {
		return true
	}
	return cost+margin <= balance
}

// currentIndex returns the index of the last route entry naming the current
// system, or -1.
func currentIndex(entries []snapshot.RouteEntry, loc state.Location) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if sameSystem(entries[i], loc) {
			return i
		}
	}
	return -1
}

func sameSystem(e snapshot.RouteEntry, loc state.Location) bool {
	if e.SystemAddress != 0 && loc.SystemAddress != 0 {
		return e.SystemAddress == loc.SystemAddress
	}
	return e.StarSystem != "" && e.StarSystem == loc.StarSystem
}

func distance(a, b []float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
