// Package ledger folds journal events into running totals: the fleet
// carrier's commodity stock and the resource progress of colonisation
// construction depots. Ledgers hold no history, only the current totals.
//
// The journal tailer delivers at-least-once, so every ledger remembers the
// identities of recently applied events and ignores a second delivery of the
// same bytes.
package ledger

import (
	"sort"
	"strings"
	"sync"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
)

// Transfer directions used by CargoTransfer.
const (
	DirectionToCarrier = "tocarrier"
	DirectionToShip    = "toship"
	DirectionToSRV     = "tosrv"
)

type cargoDepotEvent struct {
	Commodity string `json:"Commodity"`
	Count     int    `json:"Count"`
}

type marketTradeEvent struct {
	Type                string `json:"Type"`
	Count               int    `json:"Count"`
	BuyFromFleetCarrier bool   `json:"BuyFromFleetCarrier"`
	SellToFleetCarrier  bool   `json:"SellToFleetCarrier"`
}

type cargoTransferEvent struct {
	Transfers []struct {
		Type      string `json:"Type"`
		Count     int    `json:"Count"`
		Direction string `json:"Direction"`
	} `json:"Transfers"`
}

// CargoLedger tracks commodity quantities held by a fleet carrier. Quantities
// are never negative and an entry that reaches zero is removed.
type CargoLedger struct {
	mu      sync.Mutex
	items   map[string]int
	version uint64
	seen    *seenSet
}

// NewCargoLedger returns an empty ledger remembering dedupeWindow recent
// event identities (a default is used when dedupeWindow <= 0).
func NewCargoLedger(dedupeWindow int) *CargoLedger {
	return &CargoLedger{
		items: make(map[string]int),
		seen:  newSeenSet(dedupeWindow),
	}
}

// NormalizeCommodity maps the journal's spellings ("$gold_name;", "Gold")
// onto one key.
func NormalizeCommodity(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "$")
	n = strings.TrimSuffix(n, ";")
	n = strings.TrimSuffix(n, "_name")
	return n
}

// delta is one signed change to a commodity.
type delta struct {
	name  string
	count int
}

// Apply folds evt into the ledger and reports whether any quantity changed.
// Unrecognised kinds, and events already applied, are ignored.
func (l *CargoLedger) Apply(evt journal.Event) bool {
	var (
		set    *delta
		deltas []delta
	)
	switch evt.Kind {
	case journal.KindCargoDepot:
		var e cargoDepotEvent
		if evt.Decode(&e) != nil || e.Commodity == "" {
			return false
		}
		set = &delta{name: NormalizeCommodity(e.Commodity), count: e.Count}

	case journal.KindMarketBuy:
		var e marketTradeEvent
		if evt.Decode(&e) != nil || !e.BuyFromFleetCarrier {
			return false
		}
		deltas = []delta{{name: NormalizeCommodity(e.Type), count: -e.Count}}

	case journal.KindMarketSell:
		var e marketTradeEvent
		if evt.Decode(&e) != nil || !e.SellToFleetCarrier {
			return false
		}
		deltas = []delta{{name: NormalizeCommodity(e.Type), count: e.Count}}

	case journal.KindCargoTransfer:
		var e cargoTransferEvent
		if evt.Decode(&e) != nil {
			return false
		}
		for _, tr := range e.Transfers {
			name := NormalizeCommodity(tr.Type)
			switch strings.ToLower(tr.Direction) {
			case DirectionToCarrier:
				deltas = append(deltas, delta{name: name, count: tr.Count})
			case DirectionToShip, DirectionToSRV:
				deltas = append(deltas, delta{name: name, count: -tr.Count})
			}
		}
		if len(deltas) == 0 {
			return false
		}

	default:
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.seen.add(evt.Identity()) {
		return false
	}

	changed := false
	if set != nil {
		changed = l.setLocked(set.name, set.count)
	}
	// A batch is applied entirely under one lock hold, so readers never see
	// a transfer half done.
	for _, d := range deltas {
		if l.addLocked(d.name, d.count) {
			changed = true
		}
	}
	if changed {
		l.version++
	}
	return changed
}

func (l *CargoLedger) setLocked(name string, count int) bool {
	if name == "" {
		return false
	}
	prev, had := l.items[name]
	if count <= 0 {
		if had {
			delete(l.items, name)
			return true
		}
		return false
	}
	l.items[name] = count
	return !had || prev != count
}

func (l *CargoLedger) addLocked(name string, count int) bool {
	if name == "" || count == 0 {
		return false
	}
	return l.setLocked(name, l.items[name]+count)
}

// Get returns the quantity of a commodity (0 when absent).
func (l *CargoLedger) Get(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items[NormalizeCommodity(name)]
}

// Snapshot returns a copy of every non-zero quantity.
func (l *CargoLedger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.items))
	for k, v := range l.items {
		out[k] = v
	}
	return out
}

// Names returns the commodity names in sorted order.
func (l *CargoLedger) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.items))
	for k := range l.items {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Version increases on every change.
func (l *CargoLedger) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// Reset discards the ledger and rebuilds it from an authoritative source.
// Non-positive entries are dropped.
func (l *CargoLedger) Reset(entries map[string]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]int, len(entries))
	for k, v := range entries {
		if v > 0 {
			l.items[NormalizeCommodity(k)] += v
		}
	}
	l.seen.reset()
	l.version++
}
