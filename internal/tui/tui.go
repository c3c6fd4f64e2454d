// Package tui provides the BubbleTea-based live watch view.
package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// NewProgram creates a watch program on the alternate screen, starting
// from initial.
func NewProgram(initial MsgState, selectDepot func(marketID int64) error, opts ...tea.ProgramOption) *Program {
	model, _ := NewModel(selectDepot).Update(initial)
	allOpts := append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return tea.NewProgram(model, allOpts...)
}

// Run shows the watch view fed by src until the user quits.
func Run(src Source, selectDepot func(marketID int64) error, opts ...tea.ProgramOption) error {
	var p *Program
	bridge := NewBridge(src, func(msg tea.Msg) { p.Send(msg) })
	p = NewProgram(bridge.Snapshot(), selectDepot, opts...)
	bridge.Start()
	defer bridge.Stop()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// WithOutput returns a program option that directs TUI output to the given writer.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}
