package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
)

// ErrUnknownDepot is returned when selecting a depot that has never been seen.
var ErrUnknownDepot = errors.New("ledger: unknown depot")

// ResourceRequirement is one commodity a construction depot needs.
type ResourceRequirement struct {
	Name           string
	DisplayName    string
	Required       int
	Provided       int
	PaymentPerUnit int64
}

// Remaining is how many units are still needed.
func (r ResourceRequirement) Remaining() int {
	if r.Provided >= r.Required {
		return 0
	}
	return r.Required - r.Provided
}

// Depot is the last known state of a colonisation construction depot.
type Depot struct {
	MarketID  int64
	Progress  float64
	Complete  bool
	Failed    bool
	Resources []ResourceRequirement
	UpdatedAt time.Time
}

// Remaining sums the outstanding units across all resources.
func (d Depot) Remaining() int {
	n := 0
	for _, r := range d.Resources {
		n += r.Remaining()
	}
	return n
}

// Requirement looks up a resource by commodity name.
func (d Depot) Requirement(name string) (ResourceRequirement, bool) {
	key := NormalizeCommodity(name)
	for _, r := range d.Resources {
		if r.Name == key {
			return r, true
		}
	}
	return ResourceRequirement{}, false
}

func (d *Depot) clone() Depot {
	out := *d
	out.Resources = append([]ResourceRequirement(nil), d.Resources...)
	return out
}

type depotEvent struct {
	MarketID             int64   `json:"MarketID"`
	ConstructionProgress float64 `json:"ConstructionProgress"`
	ConstructionComplete bool    `json:"ConstructionComplete"`
	ConstructionFailed   bool    `json:"ConstructionFailed"`
	ResourcesRequired    []struct {
		Name           string `json:"Name"`
		NameLocalised  string `json:"Name_Localised"`
		RequiredAmount int    `json:"RequiredAmount"`
		ProvidedAmount int    `json:"ProvidedAmount"`
		Payment        int64  `json:"Payment"`
	} `json:"ResourcesRequired"`
}

type contributionEvent struct {
	MarketID      int64 `json:"MarketID"`
	Contributions []struct {
		Name          string `json:"Name"`
		NameLocalised string `json:"Name_Localised"`
		Amount        int    `json:"Amount"`
	} `json:"Contributions"`
}

// ColonizationTracker keeps the latest state of every construction depot
// seen in the journal and which one is selected for display.
type ColonizationTracker struct {
	mu       sync.Mutex
	depots   map[int64]*Depot
	selected int64
	pinned   bool
	version  uint64
	seen     *seenSet
}

// NewColonizationTracker returns an empty tracker.
func NewColonizationTracker(dedupeWindow int) *ColonizationTracker {
	return &ColonizationTracker{
		depots: make(map[int64]*Depot),
		seen:   newSeenSet(dedupeWindow),
	}
}

// Apply folds a depot snapshot or a contribution into the tracker and
// reports whether anything changed. A depot snapshot replaces that depot's
// state; a contribution raises Provided for each listed resource without
// exceeding Required. Contributions to depots never seen are ignored.
func (c *ColonizationTracker) Apply(evt journal.Event) bool {
	switch evt.Kind {
	case journal.KindColonisationDepot:
		var e depotEvent
		if err := evt.Decode(&e); err != nil || e.MarketID == 0 {
			return false
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.seen.add(evt.Identity()) {
			return false
		}
		d := &Depot{
			MarketID:  e.MarketID,
			Progress:  e.ConstructionProgress,
			Complete:  e.ConstructionComplete,
			Failed:    e.ConstructionFailed,
			UpdatedAt: evt.Timestamp,
		}
		for _, r := range e.ResourcesRequired {
			display := r.NameLocalised
			if display == "" {
				display = r.Name
			}
			provided := max(r.ProvidedAmount, 0)
			if r.RequiredAmount >= 0 && provided > r.RequiredAmount {
				provided = r.RequiredAmount
			}
			d.Resources = append(d.Resources, ResourceRequirement{
				Name:           NormalizeCommodity(r.Name),
				DisplayName:    display,
				Required:       max(r.RequiredAmount, 0),
				Provided:       provided,
				PaymentPerUnit: r.Payment,
			})
		}
		c.depots[e.MarketID] = d
		c.autoSelectLocked(e.MarketID)
		c.version++
		return true

	case journal.KindColonisationContribution:
		var e contributionEvent
		if err := evt.Decode(&e); err != nil {
			return false
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		d, ok := c.depots[e.MarketID]
		if !ok {
			return false
		}
		if !c.seen.add(evt.Identity()) {
			return false
		}
		changed := false
		for _, contrib := range e.Contributions {
			if contrib.Amount <= 0 {
				continue
			}
			name := NormalizeCommodity(contrib.Name)
			for i := range d.Resources {
				r := &d.Resources[i]
				if r.Name != name {
					continue
				}
				next := min(r.Provided+contrib.Amount, r.Required)
				if next != r.Provided {
					r.Provided = next
					changed = true
				}
			}
		}
		if !changed {
			return false
		}
		d.UpdatedAt = evt.Timestamp
		c.autoSelectLocked(e.MarketID)
		c.version++
		return true
	}
	return false
}

func (c *ColonizationTracker) autoSelectLocked(marketID int64) {
	if !c.pinned {
		c.selected = marketID
	}
}

// Depots returns copies of every known depot ordered by market ID.
func (c *ColonizationTracker) Depots() []Depot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Depot, 0, len(c.depots))
	for _, d := range c.depots {
		out = append(out, d.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID < out[j].MarketID })
	return out
}

// Depot returns a copy of one depot.
func (c *ColonizationTracker) Depot(marketID int64) (Depot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.depots[marketID]
	if !ok {
		return Depot{}, false
	}
	return d.clone(), true
}

// Selected returns the depot chosen for display: the pinned one if Select
// was called, otherwise the most recently updated.
func (c *ColonizationTracker) Selected() (Depot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.depots[c.selected]
	if !ok {
		return Depot{}, false
	}
	return d.clone(), true
}

// Select pins the displayed depot. A zero market ID unpins.
func (c *ColonizationTracker) Select(marketID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if marketID == 0 {
		c.pinned = false
		c.version++
		return nil
	}
	if _, ok := c.depots[marketID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDepot, marketID)
	}
	c.selected = marketID
	c.pinned = true
	c.version++
	return nil
}

// Version increases on every change.
func (c *ColonizationTracker) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Reset forgets every depot and the selection.
func (c *ColonizationTracker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.depots)
	c.selected = 0
	c.pinned = false
	c.seen.reset()
	c.version++
}
