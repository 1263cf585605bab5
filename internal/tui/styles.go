package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/settings"
)

// Color palette. Reassigned by applyTheme before the program starts.
var (
	colorPrimary   = lipgloss.Color("#E0544C")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// applyTheme selects the palette. "system" resolves against the terminal
// background, the closest analogue to an OS color-scheme preference.
func applyTheme(theme string) {
	dark := true
	switch theme {
	case settings.ThemeLight:
		dark = false
	case settings.ThemeDark:
		dark = true
	default:
		dark = lipgloss.HasDarkBackground()
	}

	if dark {
		colorMuted = lipgloss.Color("#666666")
		colorFg = lipgloss.Color("#C0CAF5")
		colorSubtle = lipgloss.Color("#414868")
		colorHighlight = lipgloss.Color("#7AA2F7")
	} else {
		colorMuted = lipgloss.Color("#9699A3")
		colorFg = lipgloss.Color("#343B58")
		colorSubtle = lipgloss.Color("#C4C8DA")
		colorHighlight = lipgloss.Color("#34548A")
	}
	rebuildStyles()
}

// Styles
var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	timerStyle        lipgloss.Style
	titleStyle        lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
)

func rebuildStyles() {
	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	timerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorFg)

	accentStyle = lipgloss.NewStyle().
		Foreground(colorPrimary)

	successStyle = lipgloss.NewStyle().
		Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
		Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
		Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().
		Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	normalItemStyle = lipgloss.NewStyle().
		Foreground(colorFg)
}

func init() {
	rebuildStyles()
}
