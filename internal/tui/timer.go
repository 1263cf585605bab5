package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/settings"
	"github.com/sadopc/tomato/internal/store"
	"github.com/sadopc/tomato/internal/timer"
)

type pickerStage int

const (
	pickProject pickerStage = iota
	pickCategory
)

type timerModel struct {
	engine   *timer.Engine
	store    *store.Store
	settings *settings.Service
	width    int
	height   int

	// Task picker state
	picking      bool
	stage        pickerStage
	projects     []store.Project
	categories   []store.Category
	cursor       int
	startAfter   bool // start the countdown once a task is picked
	pickedProj   *store.Project
}

func newTimerModel(engine *timer.Engine, s *store.Store, svc *settings.Service) timerModel {
	return timerModel{
		engine:   engine,
		store:    s,
		settings: svc,
	}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

// tickCmd schedules the next engine tick, tagged with the generation it was
// issued under. The engine drops ticks from superseded generations, so at
// most one tick chain is ever live.
func tickCmd(generation int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{generation: generation}
	})
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		res := t.engine.Tick(msg.generation)
		var cmds []tea.Cmd
		if res.Continue {
			cmds = append(cmds, tickCmd(res.Generation))
		}
		if res.Completed {
			text := res.Ended.Label() + " session finished"
			if res.AutoStarted {
				text += " — " + res.NextMode.Label() + " started"
			}
			cmds = append(cmds, func() tea.Msg { return statusMsg{text: text} })
		}
		return t, tea.Batch(cmds...)

	case tea.KeyMsg:
		if t.picking {
			return t.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, keys.Start):
			return t.startTimer()

		case key.Matches(msg, keys.Pause):
			if t.engine.Running() {
				t.engine.Pause()
				return t, nil
			}
			// Resume a paused countdown.
			if t.engine.SessionStart() != nil {
				gen, started := t.engine.Start()
				if started {
					return t, tickCmd(gen)
				}
			}
			return t, nil

		case key.Matches(msg, keys.Reset):
			t.engine.Reset()
			return t, nil

		case key.Matches(msg, keys.Mode):
			t.engine.SetMode(nextMode(t.engine.Mode()))
			return t, nil

		case key.Matches(msg, keys.Save):
			return t.saveProgress()

		case key.Matches(msg, keys.Enter):
			if t.engine.Running() {
				return t, func() tea.Msg {
					return statusMsg{text: "Pause the timer before switching task", isError: true}
				}
			}
			return t.openPicker(false)
		}
	}
	return t, nil
}

func nextMode(m timer.Mode) timer.Mode {
	switch m {
	case timer.ModeWork:
		return timer.ModeShortBreak
	case timer.ModeShortBreak:
		return timer.ModeLongBreak
	default:
		return timer.ModeWork
	}
}

func (t timerModel) startTimer() (timerModel, tea.Cmd) {
	if t.engine.Running() {
		return t, nil
	}
	if t.engine.Project() == nil || t.engine.Category() == nil {
		return t.openPicker(true)
	}
	gen, started := t.engine.Start()
	if !started {
		return t, nil
	}
	return t, tickCmd(gen)
}

func (t timerModel) saveProgress() (timerModel, tea.Cmd) {
	sess, err := t.engine.SaveProgress()
	if err != nil {
		text := fmt.Sprintf("Save failed: %v", err)
		if errors.Is(err, timer.ErrNoActiveSession) {
			text = "Nothing to save: pick a project and category, then start the timer"
		}
		return t, func() tea.Msg {
			return statusMsg{text: text, isError: true}
		}
	}
	return t, func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Saved %s of progress", formatMs(sess.ActualMs))}
	}
}

func (t timerModel) openPicker(startAfter bool) (timerModel, tea.Cmd) {
	projects, err := t.store.ListProjects(false)
	if err != nil {
		return t, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	if len(projects) == 0 {
		return t, func() tea.Msg {
			return statusMsg{text: "No projects yet. Press 2 to go to Projects and create one.", isError: true}
		}
	}
	t.picking = true
	t.stage = pickProject
	t.projects = projects
	t.cursor = 0
	t.startAfter = startAfter
	return t, nil
}

func (t timerModel) updatePicker(msg tea.KeyMsg) (timerModel, tea.Cmd) {
	limit := len(t.projects)
	if t.stage == pickCategory {
		limit = len(t.categories)
	}

	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < limit-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Back):
		if t.stage == pickCategory {
			t.stage = pickProject
			t.cursor = 0
		} else {
			t.picking = false
		}
	case key.Matches(msg, keys.Enter):
		if t.stage == pickProject {
			proj := t.projects[t.cursor]
			categories, err := t.store.ListCategories(proj.ID)
			if err != nil {
				t.picking = false
				return t, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
			}
			if len(categories) == 0 {
				t.picking = false
				return t, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("%q has no categories. Add one under Projects first.", proj.Name), isError: true}
				}
			}
			t.pickedProj = &proj
			t.categories = categories
			t.stage = pickCategory
			t.cursor = 0
			return t, nil
		}

		cat := t.categories[t.cursor]
		t.engine.SetTask(t.pickedProj, &cat)
		t.picking = false
		if t.startAfter {
			return t.startTimer()
		}
		return t, nil
	}
	return t, nil
}

func (t timerModel) view() string {
	w := t.width - 4

	if t.picking {
		return t.pickerView(w)
	}

	title := titleStyle.Render("Pomodoro Timer")

	display := formatCountdown(t.engine.TimeLeft())
	var timeDisplay, phaseLabel string
	switch {
	case t.engine.Running() && t.engine.Mode() == timer.ModeWork:
		timeDisplay = accentStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(display)
		phaseLabel = accentStyle.Bold(true).Render("WORK")
	case t.engine.Running():
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(display)
		phaseLabel = successStyle.Bold(true).Render(strings.ToUpper(t.engine.Mode().Label()))
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(display)
		phaseLabel = mutedStyle.Render(t.engine.Mode().Label() + " — paused")
		if t.engine.SessionStart() == nil {
			phaseLabel = mutedStyle.Render(t.engine.Mode().Label() + " — ready")
		}
	}

	task := mutedStyle.Render("No task selected — press enter to choose")
	if p, c := t.engine.Project(), t.engine.Category(); p != nil && c != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
		task = fmt.Sprintf("%s %s / %s", dot, titleStyle.Render(p.Name), highlightStyle.Render(c.Name))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		"",
		t.renderProgress(),
		"",
		task,
	)

	var controls string
	if t.engine.Running() {
		controls = mutedStyle.Render("space: pause  x: save progress  r: reset")
	} else {
		controls = mutedStyle.Render("s: start  m: mode  enter: task  x: save  r: reset")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (t timerModel) renderProgress() string {
	interval := t.settings.Current().LongBreakInterval
	if interval <= 0 {
		interval = 4
	}
	done := t.engine.CompletedPomodoros() % interval
	if done == 0 && t.engine.CompletedPomodoros() > 0 {
		done = interval
	}

	var parts []string
	for i := 0; i < interval; i++ {
		if i < done {
			parts = append(parts, successStyle.Render("●"))
		} else if i == done && t.engine.Running() && t.engine.Mode() == timer.ModeWork {
			parts = append(parts, accentStyle.Render("◐"))
		} else {
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d done", t.engine.CompletedPomodoros()))
	return strings.Join(parts, " ") + counter
}

func (t timerModel) pickerView(w int) string {
	title := titleStyle.Render("Choose a project")
	items := make([]string, 0, len(t.projects))
	if t.stage == pickProject {
		for i, p := range t.projects {
			cursor, style := "  ", normalItemStyle
			if i == t.cursor {
				cursor, style = "> ", selectedItemStyle
			}
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
			items = append(items, style.Render(cursor)+dot+" "+style.Render(p.Name))
		}
	} else {
		title = titleStyle.Render("Choose a category in " + t.pickedProj.Name)
		for i, c := range t.categories {
			cursor, style := "  ", normalItemStyle
			if i == t.cursor {
				cursor, style = "> ", selectedItemStyle
			}
			items = append(items, style.Render(cursor+c.Name))
		}
	}

	rows := append([]string{title, ""}, items...)
	rows = append(rows, "", mutedStyle.Render("  enter: select  esc: back"))
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
