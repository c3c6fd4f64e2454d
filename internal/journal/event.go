// Package journal tails the game's rotating JSON-lines journal files and turns
// each complete line into a typed, timestamped Event. Delivery is
// at-least-once: offsets only advance past bytes that were fully consumed, so
// a crash or a locked file can cause a region to be read again, never skipped.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
)

// Event kinds recognised by the engine.
const (
	KindCargoDepot               = "CargoDepot"
	KindMarketBuy                = "MarketBuy"
	KindMarketSell               = "MarketSell"
	KindCargoTransfer            = "CargoTransfer"
	KindColonisationDepot        = "ColonisationConstructionDepot"
	KindColonisationContribution = "ColonisationContribution"
	KindStartJump                = "StartJump"
	KindFSDJump                  = "FSDJump"
	KindCarrierJump              = "CarrierJump"
	KindLocation                 = "Location"
	KindSupercruiseEntry         = "SupercruiseEntry"
	KindSupercruiseExit          = "SupercruiseExit"
	KindDockingRequested         = "DockingRequested"
	KindDockingGranted           = "DockingGranted"
	KindDockingDenied            = "DockingDenied"
	KindDockingCancelled         = "DockingCancelled"
	KindDockingTimeout           = "DockingTimeout"
	KindDocked                   = "Docked"
	KindUndocked                 = "Undocked"
	KindLoadout                  = "Loadout"
	KindShutdown                 = "Shutdown"
)

// CriticalKinds is the allow-list replayed by the startup catch-up scan. Every
// entry sets state outright; none of them feeds a running total, so seeing one
// twice is harmless.
func CriticalKinds() map[string]bool {
	return map[string]bool{
		KindStartJump:        true,
		KindFSDJump:          true,
		KindCarrierJump:      true,
		KindDocked:           true,
		KindUndocked:         true,
		KindDockingRequested: true,
		KindDockingGranted:   true,
		KindDockingCancelled: true,
		KindLocation:         true,
		KindSupercruiseEntry: true,
		KindSupercruiseExit:  true,
	}
}

// RecognizedKinds returns every kind some engine component consumes.
func RecognizedKinds() map[string]bool {
	kinds := CriticalKinds()
	for _, k := range []string{
		KindCargoDepot, KindMarketBuy, KindMarketSell, KindCargoTransfer,
		KindColonisationDepot, KindColonisationContribution,
		KindDockingDenied, KindDockingTimeout, KindLoadout, KindShutdown,
	} {
		kinds[k] = true
	}
	return kinds
}

// ErrNoKind is returned by ParseLine for a JSON object without an "event" field.
var ErrNoKind = errors.New("journal: line has no event field")

// Source locates the bytes an Event was decoded from.
type Source struct {
	File   string
	Offset int64
}

// Event is one decoded journal line. Events are immutable once emitted.
type Event struct {
	Kind      string
	Timestamp time.Time
	Fields    map[string]json.RawMessage
	Raw       []byte
	Source    Source
}

// ParseLine decodes a single JSON object line. The returned Event keeps a
// private copy of line.
func ParseLine(line []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Event{}, fmt.Errorf("journal: decode line: %w", err)
	}
	var kind string
	if raw, ok := fields["event"]; ok {
		if err := json.Unmarshal(raw, &kind); err != nil {
			return Event{}, fmt.Errorf("journal: decode event field: %w", err)
		}
	}
	if kind == "" {
		return Event{}, ErrNoKind
	}
	evt := Event{
		Kind:   kind,
		Fields: fields,
		Raw:    append([]byte(nil), line...),
	}
	if raw, ok := fields["timestamp"]; ok {
		var ts string
		if err := json.Unmarshal(raw, &ts); err == nil {
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				evt.Timestamp = parsed.UTC()
			}
		}
	}
	return evt, nil
}

// Decode unmarshals the full line into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("journal: decode %s: %w", e.Kind, err)
	}
	return nil
}

// String returns the named field as a string, or "" when absent.
func (e Event) String(field string) string {
	var s string
	if raw, ok := e.Fields[field]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Identity hashes the file name, byte offset and raw bytes of the line. Two
// reads of the same bytes yield the same identity; a legitimately repeated
// line written later in the file does not.
func (e Event) Identity() uint64 {
	name := filepath.Base(e.Source.File)
	buf := make([]byte, 0, len(name)+8+len(e.Raw))
	buf = append(buf, name...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(e.Source.Offset))
	buf = append(buf, e.Raw...)
	return xxh3.Hash(buf)
}
