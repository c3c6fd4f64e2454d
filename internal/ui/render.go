package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/ansi"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// eventFields are shown, in order, after an event's kind when present.
var eventFields = []string{
	"StarSystem", "StationName", "Body", "JumpType", "StarClass",
	"Commodity", "Type", "Count", "MarketID", "Ship",
}

// Event prints one journal event as a single line.
func (p *Printer) Event(evt journal.Event) {
	var parts []string
	for _, f := range eventFields {
		if v := fieldText(evt, f); v != "" {
			parts = append(parts, f+"="+v)
		}
	}
	p.line("%s %s %s",
		p.paint(evt.Timestamp.UTC().Format(time.TimeOnly), ansi.Dim),
		p.paint(fmt.Sprintf("%-30s", evt.Kind), ansi.Cyan),
		strings.Join(parts, " "))
}

// State prints the aggregated state.
func (p *Printer) State(st *state.AggregatedState) {
	if st == nil || !st.FirstLoadCompleted {
		p.Warn("waiting for the first snapshot load")
		return
	}

	p.Section("Location")
	loc := st.Location
	p.Field("System", orUnknown(loc.StarSystem))
	if loc.Body != "" {
		p.Field("Body", loc.Body)
	}
	switch {
	case loc.Docked:
		p.Field("Docked", loc.StationName)
	case st.IsDocking:
		p.Field("Docking", "requested")
	}
	if st.IsHyperspaceJumping {
		target := "unknown"
		if st.JumpTarget != nil {
			target = st.JumpTarget.StarSystem
		}
		p.Field("Jumping", p.paint(target, ansi.Yellow, ansi.Bold))
	}

	if status := st.Status(); status != nil {
		p.Section("Status")
		if status.Fuel != nil {
			p.Field("Fuel", Tonnes(status.Fuel.FuelMain)+" + "+Tonnes(status.Fuel.FuelReservoir))
		}
		p.Field("Balance", Credits(status.Balance))
		p.Field("Flags", joinOrNone(status.FlagNames()))
		p.Field("Updated", humanize.Time(status.Timestamp))
	}

	if l := st.Snapshots.Loadout; l != nil {
		p.Section("Ship")
		p.Field("Ship", strings.TrimSpace(l.ShipName+" ("+l.Ship+")"))
		p.Field("Max range", LightYears(l.MaxJumpRange))
	}

	if len(st.CarrierCargo) > 0 {
		p.Section("Carrier cargo")
		names := make([]string, 0, len(st.CarrierCargo))
		for name := range st.CarrierCargo {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p.Field(name, humanize.Comma(int64(st.CarrierCargo[name])))
		}
	}

	if d := st.SelectedDepot; d != nil {
		p.Section(fmt.Sprintf("Depot %d", d.MarketID))
		p.Field("Progress", fmt.Sprintf("%.1f%%", d.Progress*100))
		p.Field("Remaining", humanize.Comma(int64(d.Remaining()))+" t")
		for _, r := range d.Resources {
			if r.Remaining() == 0 {
				continue
			}
			name := r.DisplayName
			if name == "" {
				name = r.Name
			}
			p.Field(name, fmt.Sprintf("%d / %d", r.Provided, r.Required))
		}
	}
}

// Plan prints a route plan, one hop per line.
func (p *Printer) Plan(plan navigation.RoutePlan) {
	p.Section("Drive")
	p.Field("FSD", plan.Drive.String())
	p.Field("Range", fmt.Sprintf("%s now, %s max", LightYears(plan.Range.CurrentRange), LightYears(plan.Range.MaxRange)))
	p.Field("Fuel", Tonnes(plan.StartFuel))

	p.Section(fmt.Sprintf("Route: %d hops, %s", len(plan.Hops), LightYears(plan.TotalDistance)))
	if len(plan.Hops) == 0 {
		p.Info("  no route plotted")
		return
	}
	for i, h := range plan.Hops {
		mark := p.paint("✓", ansi.Green)
		if !h.Reachable {
			mark = p.paint("✗", ansi.Red)
		}
		var notes []string
		if h.Scoopable {
			notes = append(notes, "scoop")
		}
		if h.RefuelAdvised {
			notes = append(notes, p.paint("refuel", ansi.Yellow))
		}
		if h.MissingPosition {
			notes = append(notes, "no position")
		}
		if h.ExceedsRange {
			notes = append(notes, p.paint("out of range", ansi.Red))
		}
		p.line("  %s %2d %-28s %-3s %9s  %8s → %-8s %s",
			mark, i+1, h.TargetSystem, h.StarClass, LightYears(h.DistanceLy),
			Tonnes(h.FuelCost), Tonnes(h.FuelAfter), strings.Join(notes, " "))
	}
	if plan.ReachableHops < len(plan.Hops) {
		p.Warn(fmt.Sprintf("only %d of %d hops reachable on current fuel", plan.ReachableHops, len(plan.Hops)))
	}
}

// fieldText renders a string field unquoted and any other scalar verbatim.
func fieldText(evt journal.Event, field string) string {
	raw, ok := evt.Fields[field]
	if !ok || len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		return evt.String(field)
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
