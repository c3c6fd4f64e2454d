package snapshot

import (
	"strings"
	"time"
)

// Fuel holds the main tank and reservoir levels in tonnes.
type Fuel struct {
	FuelMain      float64 `json:"FuelMain"`
	FuelReservoir float64 `json:"FuelReservoir"`
}

// Destination is the currently targeted system/body.
type Destination struct {
	System int64  `json:"System"`
	Body   int    `json:"Body"`
	Name   string `json:"Name"`
}

// Status mirrors Status.json.
type Status struct {
	Timestamp   time.Time    `json:"timestamp"`
	Flags       StatusFlags  `json:"Flags"`
	Flags2      StatusFlags2 `json:"Flags2"`
	Fuel        *Fuel        `json:"Fuel,omitempty"`
	Cargo       float64      `json:"Cargo"`
	Balance     int64        `json:"Balance"`
	Destination *Destination `json:"Destination,omitempty"`
	Heat        float64      `json:"Heat"`
	GuiFocus    int          `json:"GuiFocus"`
	LegalState  string       `json:"LegalState"`
	ShipType    string       `json:"ShipType,omitempty"`
}

// CargoItem is one Cargo.json inventory line.
type CargoItem struct {
	Name          string `json:"Name"`
	NameLocalised string `json:"Name_Localised,omitempty"`
	Count         int    `json:"Count"`
	Stolen        int    `json:"Stolen"`
	Value         int64  `json:"Value,omitempty"`
}

// Cargo mirrors Cargo.json.
type Cargo struct {
	Timestamp time.Time   `json:"timestamp"`
	Vessel    string      `json:"Vessel"`
	Count     int         `json:"Count"`
	Inventory []CargoItem `json:"Inventory"`
}

// Tons sums the inventory counts.
func (c *Cargo) Tons() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Inventory {
		total += item.Count
	}
	return total
}

// RouteEntry is one system in NavRoute.json.
type RouteEntry struct {
	StarSystem    string    `json:"StarSystem"`
	SystemAddress int64     `json:"SystemAddress"`
	StarPos       []float64 `json:"StarPos"`
	StarClass     string    `json:"StarClass"`
}

// HasPosition reports whether StarPos carries three coordinates.
func (r RouteEntry) HasPosition() bool {
	return len(r.StarPos) == 3
}

// NavRoute mirrors NavRoute.json.
type NavRoute struct {
	Timestamp time.Time    `json:"timestamp"`
	Route     []RouteEntry `json:"Route"`
}

// BackpackItem is one on-foot inventory entry.
type BackpackItem struct {
	Name          string `json:"Name"`
	NameLocalised string `json:"Name_Localised,omitempty"`
	OwnerID       int64  `json:"OwnerID"`
	Count         int    `json:"Count"`
}

// Backpack mirrors Backpack.json.
type Backpack struct {
	Timestamp   time.Time      `json:"timestamp"`
	Items       []BackpackItem `json:"Items"`
	Components  []BackpackItem `json:"Components"`
	Consumables []BackpackItem `json:"Consumables"`
	Data        []BackpackItem `json:"Data"`
}

// Modifier is one engineering modifier on a module.
type Modifier struct {
	Label         string  `json:"Label"`
	Value         float64 `json:"Value"`
	OriginalValue float64 `json:"OriginalValue"`
}

// Engineering describes the blueprint applied to a module.
type Engineering struct {
	BlueprintName      string     `json:"BlueprintName"`
	Level              int        `json:"Level"`
	Quality            float64    `json:"Quality"`
	ExperimentalEffect string     `json:"ExperimentalEffect,omitempty"`
	Modifiers          []Modifier `json:"Modifiers"`
}

// Modifier returns the modifier with the given label.
func (e *Engineering) Modifier(label string) (Modifier, bool) {
	if e == nil {
		return Modifier{}, false
	}
	for _, m := range e.Modifiers {
		if strings.EqualFold(m.Label, label) {
			return m, true
		}
	}
	return Modifier{}, false
}

// Module is one fitted ship module.
type Module struct {
	Slot        string       `json:"Slot"`
	Item        string       `json:"Item"`
	On          bool         `json:"On"`
	Priority    int          `json:"Priority"`
	Health      float64      `json:"Health"`
	Engineering *Engineering `json:"Engineering,omitempty"`
}

// FuelCapacity is the ship's tank sizes in tonnes.
type FuelCapacity struct {
	Main    float64 `json:"Main"`
	Reserve float64 `json:"Reserve"`
}

// Loadout mirrors the journal Loadout event (and the optional Loadout.json).
type Loadout struct {
	Timestamp     time.Time    `json:"timestamp"`
	Ship          string       `json:"Ship"`
	ShipID        int          `json:"ShipID"`
	ShipName      string       `json:"ShipName"`
	ShipIdent     string       `json:"ShipIdent"`
	HullValue     int64        `json:"HullValue"`
	ModulesValue  int64        `json:"ModulesValue"`
	UnladenMass   float64      `json:"UnladenMass"`
	CargoCapacity int          `json:"CargoCapacity"`
	MaxJumpRange  float64      `json:"MaxJumpRange"`
	FuelCapacity  FuelCapacity `json:"FuelCapacity"`
	Modules       []Module     `json:"Modules"`
}

// ModuleInSlot returns the module fitted in slot.
func (l *Loadout) ModuleInSlot(slot string) (Module, bool) {
	if l == nil {
		return Module{}, false
	}
	for _, m := range l.Modules {
		if strings.EqualFold(m.Slot, slot) {
			return m, true
		}
	}
	return Module{}, false
}
