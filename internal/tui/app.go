package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/settings"
	"github.com/sadopc/tomato/internal/store"
	"github.com/sadopc/tomato/internal/timer"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	width  int
	height int

	activeView viewState
	showHelp   bool

	timer    timerModel
	projects projectsModel
	reports  reportsModel
	settings settingsModel

	help    help.Model
	status  string
	isError bool
}

func NewApp(s *store.Store, svc *settings.Service, engine *timer.Engine) App {
	h := help.New()
	h.ShowAll = false

	applyTheme(svc.Current().Theme)

	return App{
		store:      s,
		activeView: viewTimer,
		timer:      newTimerModel(engine, s, svc),
		projects:   newProjectsModel(s),
		reports:    newReportsModel(s),
		settings:   newSettingsModel(svc),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return a.projects.refresh()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// If a child view is capturing input (form or picker), delegate first.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewProjects
			return a, a.projects.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		// Ticks always reach the timer, whatever view is on screen.
		var cmd tea.Cmd
		a.timer, cmd = a.timer.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.isError = msg.isError
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewTimer:
		return a.timer.picking
	case viewProjects:
		return a.projects.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewProjects:
		return a.projects.refresh()
	case viewReports:
		return a.reports.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewProjects:
		content = a.projects.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tomato")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.isError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Countdown indicator in footer
	timerInfo := ""
	engine := a.timer.engine
	if engine.Running() {
		timerInfo = successStyle.Render(" ● " + formatCountdown(engine.TimeLeft()))
	} else if engine.SessionStart() != nil {
		timerInfo = warningStyle.Render(" ⏸ " + formatCountdown(engine.TimeLeft()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
