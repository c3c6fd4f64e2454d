package tui

import "github.com/charmbracelet/lipgloss"

// Cockpit palette.
var (
	colorHUD    = lipgloss.Color("#FF8C00") // orange HUD accent
	colorAlert  = lipgloss.Color("#FFD700") // jump in progress, attention
	colorReach  = lipgloss.Color("#00E676") // reachable hop, docked
	colorWarn   = lipgloss.Color("#FF5252") // unreachable hop, low fuel
	colorScoop  = lipgloss.Color("#5B8DEF") // scoopable star
	colorDim    = lipgloss.Color("#636363")
	colorText   = lipgloss.Color("#8C8C8C")
	colorBright = lipgloss.Color("#EEEEEE")
	colorCanopy = lipgloss.Color("#1E1E2E")
	colorHull   = lipgloss.Color("#181825")
)

// Status icons for hop and flag states.
const (
	iconReachable   = "✓"
	iconUnreachable = "✗"
	iconScoop       = "☀"
	iconRefuel      = "⛽"
	iconActive      = "●"
)

// Status bar styles.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorCanopy).
			Foreground(colorBright).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorHUD).
				Bold(true)

	styleStatusValue = lipgloss.NewStyle().
				Foreground(colorBright)

	styleStatusAlert = lipgloss.NewStyle().
				Foreground(colorAlert).
				Bold(true)
)

// Tab styles.
var (
	styleTabActive = lipgloss.NewStyle().
			Foreground(colorCanopy).
			Background(colorHUD).
			Bold(true).
			Padding(0, 1)

	styleTabInactive = lipgloss.NewStyle().
				Foreground(colorText).
				Padding(0, 1)
)

// Row styles.
var (
	styleRowNormal = lipgloss.NewStyle().
			Foreground(colorText)

	styleRowGood = lipgloss.NewStyle().
			Foreground(colorReach)

	styleRowBad = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)

	styleRowScoop = lipgloss.NewStyle().
			Foreground(colorScoop)

	styleRowDim = lipgloss.NewStyle().
			Foreground(colorDim)
)

// Panel border for the tab body.
var stylePanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorDim).
	Padding(0, 1)

// Footer and key hint styles.
var (
	styleFooter = lipgloss.NewStyle().
			Foreground(colorDim).
			Background(colorHull).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(colorDim)

	styleHintKey = lipgloss.NewStyle().
			Foreground(colorHUD).
			Bold(true)

	styleHintSep = lipgloss.NewStyle().
			Foreground(colorDim)

	styleHintDesc = lipgloss.NewStyle().
			Foreground(colorText)
)
