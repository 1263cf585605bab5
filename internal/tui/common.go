package tui

import (
	"fmt"
	"time"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewProjects
	viewReports
	viewSettings
)

var viewNames = []string{"Timer", "Projects", "Reports", "Settings"}

// --- Messages ---

// tickMsg carries the engine generation it was scheduled under; the timer
// view drops ticks whose generation is stale.
type tickMsg struct {
	generation int
}

type statusMsg struct {
	text    string
	isError bool
}

// --- Helpers ---

func formatCountdown(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
