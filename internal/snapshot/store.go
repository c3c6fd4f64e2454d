// Package snapshot loads the whole-file JSON documents the game rewrites in
// place (Status.json, Cargo.json, NavRoute.json, Backpack.json and the ship
// loadout) and swaps each one atomically: readers see either the previous
// complete value or the new complete value, never a partial decode.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/xxh3"
)

// Kind identifies one snapshot file.
type Kind int

// Snapshot kinds, in load order.
const (
	KindStatus Kind = iota
	KindCargo
	KindRoute
	KindBackpack
	KindLoadout
	kindCount
)

// Kinds returns every snapshot kind.
func Kinds() []Kind {
	return []Kind{KindStatus, KindCargo, KindRoute, KindBackpack, KindLoadout}
}

// String returns the lower-case name used in logs and notifications.
func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindCargo:
		return "cargo"
	case KindRoute:
		return "route"
	case KindBackpack:
		return "backpack"
	case KindLoadout:
		return "loadout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FileName returns the on-disk name of the snapshot file.
func (k Kind) FileName() string {
	switch k {
	case KindStatus:
		return "Status.json"
	case KindCargo:
		return "Cargo.json"
	case KindRoute:
		return "NavRoute.json"
	case KindBackpack:
		return "Backpack.json"
	case KindLoadout:
		return "Loadout.json"
	default:
		return ""
	}
}

// KindForFile maps a base file name back to its Kind.
func KindForFile(name string) (Kind, bool) {
	base := filepath.Base(name)
	for _, k := range Kinds() {
		if k.FileName() == base {
			return k, true
		}
	}
	return 0, false
}

// ErrEmptyFile is returned when a snapshot file exists but has no content yet,
// which happens while the game is rewriting it.
var ErrEmptyFile = errors.New("snapshot: file is empty")

// Set is an immutable view of the latest snapshots. Pointers are never
// mutated after publication; a nil pointer means "not known".
type Set struct {
	Status   *Status
	Cargo    *Cargo
	Route    *NavRoute
	Backpack *Backpack
	Loadout  *Loadout

	versions [kindCount]uint64
	loaded   [kindCount]bool
}

// Version returns the change counter for kind. It increases every time a
// different value is published.
func (s Set) Version(k Kind) uint64 {
	if k < 0 || k >= kindCount {
		return 0
	}
	return s.versions[k]
}

// Loaded reports whether kind has completed at least one read.
func (s Set) Loaded(k Kind) bool {
	if k < 0 || k >= kindCount {
		return false
	}
	return s.loaded[k]
}

// AllLoaded reports whether every kind has completed at least one read.
func (s Set) AllLoaded() bool {
	for _, k := range Kinds() {
		if !s.loaded[k] {
			return false
		}
	}
	return true
}

// Store holds the current snapshot Set for one directory.
type Store struct {
	dir    string
	logger *slog.Logger

	mu       sync.Mutex
	set      Set
	hashes   [kindCount]uint64
	onChange []func(Kind)

	readFile func(string) ([]byte, error)
}

// NewStore creates an empty store rooted at dir. A nil logger discards.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		dir:      dir,
		logger:   logger.With("component", "snapshot"),
		readFile: os.ReadFile,
	}
}

// Dir returns the watched directory.
func (s *Store) Dir() string { return s.dir }

// OnChange registers fn to be called after a kind publishes a new value.
// Callbacks run on the loading goroutine, outside the store lock.
func (s *Store) OnChange(fn func(Kind)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Set returns the current snapshots.
func (s *Store) Set() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// LoadAll loads every kind, returning the joined errors of those that failed.
func (s *Store) LoadAll() error {
	var errs []error
	for _, k := range Kinds() {
		if err := s.Load(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load reads kind's file and publishes it. A missing file is not an error
// and changes nothing: the kind stays unloaded until a read succeeds, and a
// file that vanishes later keeps the last known value (the loadout may have
// arrived through the journal instead). On a parse error the previous value
// is kept and the error returned so the caller can retry.
func (s *Store) Load(k Kind) error {
	path := filepath.Join(s.dir, k.FileName())
	data, err := s.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("snapshot: read %s: %w", k.FileName(), err)
	}
	return s.Replace(k, data)
}

// Replace decodes raw as kind and publishes it. It is used directly for
// snapshots that also arrive through the journal (the Loadout event).
func (s *Store) Replace(k Kind, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("snapshot: %s: %w", k.FileName(), ErrEmptyFile)
	}
	value, err := decode(k, raw)
	if err != nil {
		s.logger.Warn("snapshot: keeping previous value after parse error", "kind", k.String(), "error", err)
		return fmt.Errorf("snapshot: decode %s: %w", k.FileName(), err)
	}
	s.publish(k, value, xxh3.Hash(raw))
	return nil
}

func decode(k Kind, raw []byte) (any, error) {
	var (
		v   any
		err error
	)
	switch k {
	case KindStatus:
		var st Status
		err = json.Unmarshal(raw, &st)
		v = &st
	case KindCargo:
		var c Cargo
		err = json.Unmarshal(raw, &c)
		v = &c
	case KindRoute:
		var r NavRoute
		err = json.Unmarshal(raw, &r)
		v = &r
	case KindBackpack:
		var b Backpack
		err = json.Unmarshal(raw, &b)
		v = &b
	case KindLoadout:
		var l Loadout
		err = json.Unmarshal(raw, &l)
		v = &l
	default:
		return nil, fmt.Errorf("unknown kind %d", int(k))
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// publish swaps in value unless its content hash matches the current one.
func (s *Store) publish(k Kind, value any, hash uint64) {
	s.mu.Lock()
	first := !s.set.loaded[k]
	if !first && s.hashes[k] == hash {
		s.mu.Unlock()
		return
	}
	s.hashes[k] = hash
	s.set.loaded[k] = true
	s.set.versions[k]++
	switch k {
	case KindStatus:
		s.set.Status, _ = value.(*Status)
	case KindCargo:
		s.set.Cargo, _ = value.(*Cargo)
	case KindRoute:
		s.set.Route, _ = value.(*NavRoute)
	case KindBackpack:
		s.set.Backpack, _ = value.(*Backpack)
	case KindLoadout:
		s.set.Loadout, _ = value.(*Loadout)
	}
	callbacks := append([]func(Kind){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(k)
	}
}
