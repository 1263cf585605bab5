package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/settings"
)

type settingsModel struct {
	service *settings.Service
	width   int
	height  int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	work          *string
	shortBreak    *string
	longBreak     *string
	interval      *string
	audio         *bool
	notifications *bool
	autoStart     *bool
	theme         *string
}

func newSettingsModel(svc *settings.Service) settingsModel {
	w, sb, lb, iv, th := "", "", "", "", ""
	audio, notif, auto := false, false, false
	return settingsModel{
		service:       svc,
		work:          &w,
		shortBreak:    &sb,
		longBreak:     &lb,
		interval:      &iv,
		audio:         &audio,
		notifications: &notif,
		autoStart:     &auto,
		theme:         &th,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		case key.Matches(msg, keys.Reset):
			cfg := s.service.Reset()
			applyTheme(cfg.Theme)
			return s, func() tea.Msg {
				return statusMsg{text: "Settings restored to defaults"}
			}
		}
	}
	return s, nil
}

func validMinutes(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number of minutes")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cfg := s.service.Current()
	*s.work = strconv.Itoa(cfg.WorkDuration)
	*s.shortBreak = strconv.Itoa(cfg.ShortBreakDuration)
	*s.longBreak = strconv.Itoa(cfg.LongBreakDuration)
	*s.interval = strconv.Itoa(cfg.LongBreakInterval)
	*s.audio = cfg.AudioEnabled
	*s.notifications = cfg.NotificationsEnabled
	*s.autoStart = cfg.AutoStartBreaks
	*s.theme = cfg.Theme

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Work (min)").Validate(validMinutes).Value(s.work),
			huh.NewInput().Title("Short break (min)").Validate(validMinutes).Value(s.shortBreak),
			huh.NewInput().Title("Long break (min)").Validate(validMinutes).Value(s.longBreak),
			huh.NewInput().Title("Work sessions before long break").Validate(validMinutes).Value(s.interval),
		).Title("Durations"),
		huh.NewGroup(
			huh.NewConfirm().Title("Audio cue").Value(s.audio),
			huh.NewConfirm().Title("Desktop notifications").Value(s.notifications),
			huh.NewConfirm().Title("Auto-start breaks").Value(s.autoStart),
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("System", settings.ThemeSystem),
					huh.NewOption("Light", settings.ThemeLight),
					huh.NewOption("Dark", settings.ThemeDark),
				).Value(s.theme),
		).Title("Behavior"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s.saveForm()
	}

	return s, cmd
}

func (s settingsModel) saveForm() (settingsModel, tea.Cmd) {
	work, _ := strconv.Atoi(*s.work)
	shortBreak, _ := strconv.Atoi(*s.shortBreak)
	longBreak, _ := strconv.Atoi(*s.longBreak)
	interval, _ := strconv.Atoi(*s.interval)

	cfg := s.service.Update(settings.Patch{
		WorkDuration:         &work,
		ShortBreakDuration:   &shortBreak,
		LongBreakDuration:    &longBreak,
		LongBreakInterval:    &interval,
		AudioEnabled:         s.audio,
		NotificationsEnabled: s.notifications,
		AutoStartBreaks:      s.autoStart,
		Theme:                s.theme,
	})
	applyTheme(cfg.Theme)

	return s, func() tea.Msg {
		return statusMsg{text: "Settings saved"}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	cfg := s.service.Current()
	title := titleStyle.Render("Settings")

	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(28).Render(label), highlightStyle.Render(value))
	}
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}

	rows := []string{
		title,
		"",
		row("Work", fmt.Sprintf("%d min", cfg.WorkDuration)),
		row("Short break", fmt.Sprintf("%d min", cfg.ShortBreakDuration)),
		row("Long break", fmt.Sprintf("%d min", cfg.LongBreakDuration)),
		row("Long break interval", fmt.Sprintf("every %d sessions", cfg.LongBreakInterval)),
		row("Audio cue", onOff(cfg.AudioEnabled)),
		row("Desktop notifications", onOff(cfg.NotificationsEnabled)),
		row("Auto-start breaks", onOff(cfg.AutoStartBreaks)),
		row("Theme", cfg.Theme),
		"",
		mutedStyle.Render("  enter: edit  r: restore defaults"),
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
