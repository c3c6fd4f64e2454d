package state

import (
	"strings"
	"time"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/journal"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
)

// lifecycle is the journal-driven part of the state.
type lifecycle struct {
	jumping     bool
	jumpStarted time.Time
	target      *JumpTarget
	docking     bool
	location    Location
}

// HandleEvent applies a journal lifecycle event and reports whether the
// journal-driven state changed. A change schedules a recompute.
func (a *Aggregator) HandleEvent(evt journal.Event) bool {
	a.mu.Lock()
	before := a.life
	beforeLoc := a.life.location.clone()
	a.applyLocked(evt)
	changed := before.jumping != a.life.jumping ||
		!targetEqual(before.target, a.life.target) ||
		before.docking != a.life.docking ||
		!beforeLoc.equal(a.life.location)
	a.mu.Unlock()

	if changed {
		a.Invalidate()
	}
	return changed
}

type jumpEvent struct {
	JumpType      string    `json:"JumpType"`
	StarSystem    string    `json:"StarSystem"`
	SystemAddress int64     `json:"SystemAddress"`
	StarClass     string    `json:"StarClass"`
	StarPos       []float64 `json:"StarPos"`
	Body          string    `json:"Body"`
	Docked        bool      `json:"Docked"`
	StationName   string    `json:"StationName"`
}

func (a *Aggregator) applyLocked(evt journal.Event) {
	var e jumpEvent
	switch evt.Kind {
	case journal.KindStartJump:
		if evt.Decode(&e) != nil || !strings.EqualFold(e.JumpType, "Hyperspace") {
			return
		}
		started := evt.Timestamp
		if started.IsZero() {
			started = a.clock()
		}
		a.life.jumping = true
		a.life.jumpStarted = started
		a.life.target = &JumpTarget{StarSystem: e.StarSystem, SystemAddress: e.SystemAddress, StarClass: e.StarClass}

	case journal.KindFSDJump, journal.KindCarrierJump, journal.KindLocation:
		if evt.Decode(&e) != nil {
			return
		}
		a.endJumpLocked()
		loc := Location{
			StarSystem:    e.StarSystem,
			SystemAddress: e.SystemAddress,
			StarPos:       e.StarPos,
			Body:          e.Body,
		}
		if evt.Kind != journal.KindFSDJump {
			loc.Docked = e.Docked
			if e.Docked {
				loc.StationName = e.StationName
			}
		}
		a.life.location = loc

	case journal.KindSupercruiseEntry, journal.KindSupercruiseExit:
		if evt.Decode(&e) != nil {
			return
		}
		if e.StarSystem != "" {
			a.life.location.StarSystem = e.StarSystem
			a.life.location.SystemAddress = e.SystemAddress
		}
		a.life.location.Body = e.Body
		a.life.location.Docked = false

	case journal.KindDockingRequested, journal.KindDockingGranted:
		a.life.docking = true

	case journal.KindDockingDenied, journal.KindDockingCancelled, journal.KindDockingTimeout:
		a.life.docking = false

	case journal.KindDocked:
		_ = evt.Decode(&e)
		a.life.docking = false
		a.life.location.Docked = true
		a.life.location.StationName = e.StationName
		if e.StarSystem != "" {
			a.life.location.StarSystem = e.StarSystem
			a.life.location.SystemAddress = e.SystemAddress
		}

	case journal.KindUndocked:
		a.life.docking = false
		a.life.location.Docked = false
		a.life.location.StationName = ""

	case journal.KindShutdown:
		a.endJumpLocked()
		a.life.docking = false
	}
}

func (a *Aggregator) endJumpLocked() {
	a.life.jumping = false
	a.life.jumpStarted = time.Time{}
	a.life.target = nil
}

// Tick clears a hyperspace jump that has outlived JumpTimeout, or that the
// status file shows was cancelled, and recomputes if anything changed.
func (a *Aggregator) Tick(now time.Time) {
	status := a.snapshots().Status

	a.mu.Lock()
	cleared := ""
	if a.life.jumping {
		elapsed := now.Sub(a.life.jumpStarted)
		switch {
		case elapsed >= a.cfg.JumpTimeout:
			cleared = "timeout"
		case elapsed > a.cfg.CancelGrace && jumpCancelled(status, a.life.jumpStarted):
			cleared = "cancelled"
		}
		if cleared != "" {
			a.endJumpLocked()
		}
	}
	a.mu.Unlock()

	if cleared != "" {
		a.logger.Info("state: hyperspace jump cleared", "reason", cleared)
		a.Recompute()
	}
}

// jumpCancelled reports whether a status written after the jump started
// shows the drive neither charging nor jumping.
func jumpCancelled(st *snapshot.Status, started time.Time) bool {
	if st == nil {
		return false
	}
	if !st.Timestamp.IsZero() && st.Timestamp.Before(started) {
		return false
	}
	return !st.Flags.Has(snapshot.FlagFsdCharging) && !st.Flags.Has(snapshot.FlagFsdJump)
}
