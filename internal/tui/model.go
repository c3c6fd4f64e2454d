package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/state"
)

// Tab identifies the body panel.
type Tab int

// Body panels, in tab order.
const (
	TabRoute Tab = iota
	TabCargo
	TabDepot
	tabCount
)

// String returns the tab title.
func (t Tab) String() string {
	switch t {
	case TabRoute:
		return "Route"
	case TabCargo:
		return "Carrier"
	case TabDepot:
		return "Depot"
	default:
		return "?"
	}
}

// Model is the watch view. It only reads published state; the one action
// it can take is pinning a colonisation depot through SelectDepot.
type Model struct {
	Keys   KeyMap
	Width  int
	Height int
	Tab    Tab
	Offset int

	State   *state.AggregatedState
	Plan    *navigation.RoutePlan
	PlanErr error
	Notice  string

	// SelectDepot pins a depot. Nil disables depot cycling.
	SelectDepot func(marketID int64) error
}

// NewModel returns a model with the default key map.
func NewModel(selectDepot func(marketID int64) error) Model {
	return Model{
		Keys:        DefaultKeyMap(),
		Width:       80,
		Height:      24,
		State:       &state.AggregatedState{},
		SelectDepot: selectDepot,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.clampOffset()

	case MsgState:
		if msg.State != nil {
			m.State = msg.State
		}
		m.Plan = msg.Plan
		m.PlanErr = msg.PlanErr
		m.clampOffset()

	case MsgDepotSelected:
		if msg.Err != nil {
			m.Notice = "select failed: " + msg.Err.Error()
		} else {
			m.Notice = ""
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.NextTab):
		m.setTab((m.Tab + 1) % tabCount)
	case key.Matches(msg, m.Keys.PrevTab):
		m.setTab((m.Tab + tabCount - 1) % tabCount)
	case key.Matches(msg, m.Keys.Route):
		m.setTab(TabRoute)
	case key.Matches(msg, m.Keys.Cargo):
		m.setTab(TabCargo)
	case key.Matches(msg, m.Keys.Depot):
		m.setTab(TabDepot)
	case key.Matches(msg, m.Keys.Up):
		if m.Offset > 0 {
			m.Offset--
		}
	case key.Matches(msg, m.Keys.Down):
		m.Offset++
		m.clampOffset()
	case key.Matches(msg, m.Keys.NextPick):
		if m.Tab == TabDepot {
			return m, m.cycleDepot()
		}
	}
	return m, nil
}

func (m *Model) setTab(t Tab) {
	m.Tab = t
	m.Offset = 0
}

// cycleDepot pins the depot after the selected one, wrapping around.
func (m Model) cycleDepot() tea.Cmd {
	if m.SelectDepot == nil || len(m.State.Depots) == 0 {
		return nil
	}
	depots := m.State.Depots
	next := depots[0].MarketID
	if sel := m.State.SelectedDepot; sel != nil {
		for i, d := range depots {
			if d.MarketID == sel.MarketID {
				next = depots[(i+1)%len(depots)].MarketID
				break
			}
		}
	}
	selectDepot := m.SelectDepot
	return func() tea.Msg {
		return MsgDepotSelected{MarketID: next, Err: selectDepot(next)}
	}
}

// bodyRows is how many panel lines fit between the header and the footer.
func (m Model) bodyRows() int {
	const chrome = 9 // status bar, flags, drive line, tabs, panel border, footer
	if rows := m.Height - chrome; rows > 1 {
		return rows
	}
	return 1
}

func (m *Model) clampOffset() {
	limit := len(m.panelRows()) - m.bodyRows()
	if limit < 0 {
		limit = 0
	}
	if m.Offset > limit {
		m.Offset = limit
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}
