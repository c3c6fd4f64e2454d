package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/navigation"
)

// View implements tea.Model.
func (m Model) View() string {
	rows := m.panelRows()
	end := m.Offset + m.bodyRows()
	if end > len(rows) {
		end = len(rows)
	}
	start := m.Offset
	if start > end {
		start = end
	}

	width := m.Width - 2
	if width < 20 {
		width = 20
	}
	body := stylePanel.Width(width).Render(strings.Join(rows[start:end], "\n"))

	sections := []string{
		m.statusBar(),
		m.flagsLine(),
		m.driveLine(),
		m.tabs(),
		body,
	}
	if m.Notice != "" {
		sections = append(sections, styleRowBad.Render(m.Notice))
	}
	footer := Footer{Width: m.Width, Bindings: FooterBindings(m.Keys, m.Tab)}
	sections = append(sections, footer.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) statusBar() string {
	st := m.State
	if !st.FirstLoadCompleted {
		return styleStatusBar.Width(m.Width).Render(styleStatusAlert.Render("waiting for telemetry…"))
	}
	system := st.Location.StarSystem
	if system == "" {
		system = "unknown"
	}
	parts := []string{styleStatusLabel.Render("SYS ") + styleStatusValue.Render(system)}
	switch {
	case st.IsHyperspaceJumping:
		target := "?"
		if st.JumpTarget != nil {
			target = st.JumpTarget.StarSystem
		}
		parts = append(parts, styleStatusAlert.Render("JUMPING → "+target))
	case st.Location.Docked:
		parts = append(parts, styleStatusLabel.Render("DOCKED ")+styleStatusValue.Render(st.Location.StationName))
	case st.IsDocking:
		parts = append(parts, styleStatusAlert.Render("DOCKING"))
	}
	if status := st.Status(); status != nil {
		parts = append(parts, styleStatusLabel.Render("CR ")+styleStatusValue.Render(humanize.Comma(status.Balance)))
	}
	return styleStatusBar.Width(m.Width).Render(strings.Join(parts, "  "))
}

func (m Model) flagsLine() string {
	status := m.State.Status()
	if status == nil {
		return styleRowDim.Render("no status")
	}
	names := status.FlagNames()
	if len(names) == 0 {
		return styleRowDim.Render("no flags")
	}
	return styleRowGood.Render(iconActive+" ") + styleRowNormal.Render(strings.Join(names, " · "))
}

func (m Model) driveLine() string {
	if m.Plan == nil {
		msg := "no drive data"
		if m.PlanErr != nil {
			msg = m.PlanErr.Error()
		}
		return styleRowDim.Render(msg)
	}
	p := m.Plan
	fuel := fmt.Sprintf("fuel %.2f t", p.StartFuel)
	line := fmt.Sprintf("FSD %s  range %.2f / %.2f ly  %s",
		p.Drive.String(), p.Range.CurrentRange, p.Range.MaxRange, fuel)
	return styleRowNormal.Render(line)
}

func (m Model) tabs() string {
	var parts []string
	for t := Tab(0); t < tabCount; t++ {
		style := styleTabInactive
		if t == m.Tab {
			style = styleTabActive
		}
		parts = append(parts, style.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// panelRows renders every line of the active tab; View windows them.
func (m Model) panelRows() []string {
	switch m.Tab {
	case TabCargo:
		return m.cargoRows()
	case TabDepot:
		return m.depotRows()
	default:
		return m.routeRows()
	}
}

func (m Model) routeRows() []string {
	if m.Plan == nil || len(m.Plan.Hops) == 0 {
		return []string{styleRowDim.Render("no route plotted")}
	}
	rows := make([]string, 0, len(m.Plan.Hops)+1)
	for i, h := range m.Plan.Hops {
		rows = append(rows, hopRow(i, h))
	}
	summary := fmt.Sprintf("%d/%d reachable  %.2f ly total", m.Plan.ReachableHops, len(m.Plan.Hops), m.Plan.TotalDistance)
	return append(rows, styleRowDim.Render(summary))
}

func hopRow(i int, h navigation.HopAnnotation) string {
	icon, style := iconReachable, styleRowGood
	if !h.Reachable {
		icon, style = iconUnreachable, styleRowBad
	}
	row := fmt.Sprintf("%s %2d %-24s %-3s %6.2f ly %5.2f t", icon, i+1, h.TargetSystem, h.StarClass, h.DistanceLy, h.FuelCost)
	row = style.Render(row)
	if h.Scoopable {
		row += " " + styleRowScoop.Render(iconScoop)
	}
	if h.RefuelAdvised {
		row += " " + styleStatusAlert.Render(iconRefuel)
	}
	if h.MissingPosition {
		row += " " + styleRowDim.Render("(no position)")
	}
	return row
}

func (m Model) cargoRows() []string {
	cargo := m.State.CarrierCargo
	if len(cargo) == 0 {
		return []string{styleRowDim.Render("carrier hold empty")}
	}
	names := make([]string, 0, len(cargo))
	total := 0
	for name, n := range cargo {
		names = append(names, name)
		total += n
	}
	sort.Strings(names)
	rows := make([]string, 0, len(names)+1)
	for _, name := range names {
		rows = append(rows, styleRowNormal.Render(fmt.Sprintf("%-32s %8s", name, humanize.Comma(int64(cargo[name])))))
	}
	return append(rows, styleRowDim.Render(fmt.Sprintf("%-32s %8s", "total", humanize.Comma(int64(total)))))
}

func (m Model) depotRows() []string {
	d := m.State.SelectedDepot
	if d == nil {
		return []string{styleRowDim.Render("no colonisation depot")}
	}
	header := fmt.Sprintf("market %d  %.1f%%  %s t remaining", d.MarketID, d.Progress*100, humanize.Comma(int64(d.Remaining())))
	switch {
	case d.Complete:
		header += "  complete"
	case d.Failed:
		header += "  failed"
	}
	rows := []string{styleStatusLabel.Render(header)}
	for _, r := range d.Resources {
		name := r.DisplayName
		if name == "" {
			name = r.Name
		}
		style := styleRowNormal
		if r.Remaining() == 0 {
			style = styleRowGood
		}
		rows = append(rows, style.Render(fmt.Sprintf("%-28s %6d / %-6d", name, r.Provided, r.Required)))
	}
	return rows
}
