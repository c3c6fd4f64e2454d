package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// CompactWidth is the terminal width below which hints drop descriptions.
const CompactWidth = 60

// Footer renders keybinding hints.
type Footer struct {
	Width    int
	Bindings []key.Binding
}

// View renders the footer as a single line of keybinding hints.
func (f Footer) View() string {
	compact := f.Width < CompactWidth

	var parts []string
	for _, b := range f.Bindings {
		if !b.Enabled() {
			continue
		}
		help := b.Help()
		part := styleHintKey.Render(help.Key)
		if !compact {
			part += styleHintSep.Render(":") + styleHintDesc.Render(help.Desc)
		}
		parts = append(parts, part)
	}
	sep := styleHintSep.Render("  ")
	if compact {
		sep = styleHintSep.Render(" ")
	}
	return styleFooter.Width(f.Width).Render(strings.Join(parts, sep))
}

// FooterBindings returns the hints shown for tab.
func FooterBindings(km KeyMap, tab Tab) []key.Binding {
	bindings := []key.Binding{km.NextTab, km.Up, km.Down}
	if tab == TabDepot {
		bindings = append(bindings, km.NextPick)
	}
	return append(bindings, km.Quit)
}
