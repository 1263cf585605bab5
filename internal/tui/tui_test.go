package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/settings"
	"github.com/sadopc/tomato/internal/store"
	"github.com/sadopc/tomato/internal/timer"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T) (App, *store.Store, *timer.Engine) {
	t.Helper()
	s := newTestStore(t)
	svc := settings.NewService(s, zerolog.Nop())
	engine := timer.New(svc, s, notify.Nop{}, zerolog.Nop())
	return NewApp(s, svc, engine), s, engine
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// ============================================================
// Timer view
// ============================================================

func TestTimerStartWithoutProjectsShowsStatus(t *testing.T) {
	app, _, engine := newTestApp(t)

	tm := app.timer
	tm, cmd := tm.update(keyMsg('s'))
	if tm.picking {
		t.Fatal("picker should not open with no projects")
	}
	if engine.Running() {
		t.Fatal("timer must not start without a task")
	}
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestTimerStartOpensPicker(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	s.CreateCategory(p.ID, "Writing")

	tm := app.timer
	tm, _ = tm.update(keyMsg('s'))
	if !tm.picking || tm.stage != pickProject {
		t.Fatal("start without a task should open the project picker")
	}
	if !tm.startAfter {
		t.Fatal("picker should remember to start after selection")
	}
	if engine.Running() {
		t.Fatal("timer must not run until a task is picked")
	}
}

func TestTimerPickerSelectsTaskAndStarts(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")

	tm := app.timer
	tm, _ = tm.update(keyMsg('s'))

	enter := tea.KeyMsg{Type: tea.KeyEnter}
	tm, _ = tm.updatePicker(enter)
	if tm.stage != pickCategory {
		t.Fatal("selecting a project should advance to categories")
	}

	tm, cmd := tm.updatePicker(enter)
	if tm.picking {
		t.Fatal("picker should close after category selection")
	}
	if engine.Project() == nil || engine.Project().ID != p.ID {
		t.Fatal("project not applied to the engine")
	}
	if engine.Category() == nil || engine.Category().ID != c.ID {
		t.Fatal("category not applied to the engine")
	}
	if !engine.Running() {
		t.Fatal("timer should start after picking")
	}
	if cmd == nil {
		t.Fatal("start should schedule a tick")
	}
}

func TestTimerPickerRejectsProjectWithoutCategories(t *testing.T) {
	app, s, engine := newTestApp(t)
	s.CreateProject("Empty", "", "#E0544C")

	tm := app.timer
	tm, _ = tm.update(keyMsg('s'))

	tm, cmd := tm.updatePicker(tea.KeyMsg{Type: tea.KeyEnter})
	if tm.picking {
		t.Fatal("picker should close when the project has no categories")
	}
	if engine.Running() {
		t.Fatal("timer must not start")
	}
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestTimerTickRoutesToEngine(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")
	engine.SetTask(p, c)

	gen, _ := engine.Start()
	before := engine.TimeLeft()

	tm := app.timer
	tm, cmd := tm.update(tickMsg{generation: gen})
	if engine.TimeLeft() != before-1 {
		t.Fatal("tick should decrement the countdown")
	}
	if cmd == nil {
		t.Fatal("a running countdown should re-arm the tick")
	}

	// Stale generation after a pause: state untouched, no re-arm.
	engine.Pause()
	tm, cmd = tm.update(tickMsg{generation: gen})
	if engine.TimeLeft() != before-1 {
		t.Fatal("stale tick must not decrement")
	}
	if cmd != nil {
		if _, ok := cmd().(tickMsg); ok {
			t.Fatal("stale tick must not re-arm")
		}
	}
	_ = tm
}

func TestTimerSpacePausesAndResumes(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")
	engine.SetTask(p, c)
	engine.Start()

	space := tea.KeyMsg{Type: tea.KeySpace}
	tm := app.timer
	tm, _ = tm.update(space)
	if engine.Running() {
		t.Fatal("space should pause a running timer")
	}
	if engine.SessionStart() == nil {
		t.Fatal("pause must keep the session start")
	}

	tm, cmd := tm.update(space)
	if !engine.Running() {
		t.Fatal("space should resume a paused timer")
	}
	if cmd == nil {
		t.Fatal("resume should schedule a tick")
	}
	_ = tm
}

func TestTimerEnterBlockedWhileRunning(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")
	engine.SetTask(p, c)
	engine.Start()

	tm := app.timer
	tm, cmd := tm.update(tea.KeyMsg{Type: tea.KeyEnter})
	if tm.picking {
		t.Fatal("task switch must be blocked while running")
	}
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

func TestTimerSaveWithoutSessionShowsFriendlyError(t *testing.T) {
	app, _, _ := newTestApp(t)

	tm := app.timer
	_, cmd := tm.update(keyMsg('x'))
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
	if !strings.Contains(msg.text, "Nothing to save") {
		t.Fatalf("expected friendly message, got %q", msg.text)
	}
}

func TestTimerSavePersistsPartialSession(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")
	engine.SetTask(p, c)

	gen, _ := engine.Start()
	tm := app.timer
	tm, _ = tm.update(tickMsg{generation: gen})

	tm, cmd := tm.update(keyMsg('x'))
	msg, ok := cmd().(statusMsg)
	if !ok || msg.isError {
		t.Fatalf("expected success status, got %#v", msg)
	}

	sessions, err := s.ListSessions(store.SessionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ActualMs != 1000 || sessions[0].Completed {
		t.Fatalf("unexpected persisted session: %+v", sessions)
	}
	if engine.Running() {
		t.Fatal("save should reset the timer")
	}
	_ = tm
}

func TestNextMode(t *testing.T) {
	if nextMode(timer.ModeWork) != timer.ModeShortBreak {
		t.Fatal("work should cycle to short break")
	}
	if nextMode(timer.ModeShortBreak) != timer.ModeLongBreak {
		t.Fatal("short break should cycle to long break")
	}
	if nextMode(timer.ModeLongBreak) != timer.ModeWork {
		t.Fatal("long break should cycle to work")
	}
}

// ============================================================
// Helper functions
// ============================================================

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "00:00"},
		{1, "00:01"},
		{60, "01:00"},
		{1500, "25:00"},
		{330, "05:30"},
		{-5, "00:00"}, // negative clamps to 0
	}
	for _, tt := range tests {
		got := formatCountdown(tt.secs)
		if got != tt.want {
			t.Errorf("formatCountdown(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0m"},
		{60000, "1m"},
		{1500000, "25m"},
		{3600000, "1h 00m"},
		{5400000, "1h 30m"},
	}
	for _, tt := range tests {
		got := formatMs(tt.ms)
		if got != tt.want {
			t.Errorf("formatMs(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if min(3, 5) != 3 || min(5, 3) != 3 || min(3, 3) != 3 {
		t.Fatal("min broken")
	}
	if max(3, 5) != 5 || max(5, 3) != 5 || max(3, 3) != 3 {
		t.Fatal("max broken")
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	expected := []string{"Timer", "Projects", "Reports", "Settings"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewTimer != 0 || viewProjects != 1 || viewReports != 2 || viewSettings != 3 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app, _, _ := newTestApp(t)

	if app.activeView != viewTimer {
		t.Fatal("default view should be the timer")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.isCapturing() {
		t.Fatal("no child view should capture input initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	app, _, _ := newTestApp(t)
	// Width 0 means not yet sized.
	if got := app.View(); got != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", got)
	}
}

func TestAppViewStates(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.width = 120
	app.height = 40

	for _, v := range []viewState{viewTimer, viewProjects, viewReports, viewSettings} {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
	if !strings.Contains(header, "tomato") {
		t.Fatal("header missing app title")
	}
}

func TestAppRenderFooterShowsCountdownWhenRunning(t *testing.T) {
	app, s, engine := newTestApp(t)
	app.width = 120
	app.height = 40

	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")
	engine.SetTask(p, c)
	engine.Start()

	footer := app.renderFooter()
	if !strings.Contains(footer, formatCountdown(engine.TimeLeft())) {
		t.Fatal("footer should show the countdown while running")
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.width = 120
	app.height = 40
	app.status = "saved 10m of progress"

	footer := app.renderFooter()
	if !strings.Contains(footer, "saved 10m of progress") {
		t.Fatal("footer should contain the status message")
	}
}

func TestAppTickAlwaysReachesTimer(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")
	engine.SetTask(p, c)
	gen, _ := engine.Start()
	before := engine.TimeLeft()

	// Ticks decrement even while another view is on screen.
	app.activeView = viewReports
	model, _ := app.Update(tickMsg{generation: gen})
	if engine.TimeLeft() != before-1 {
		t.Fatal("tick should reach the timer from any view")
	}
	_ = model
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Themes and styles
// ============================================================

func TestApplyThemeRebuildStyles(t *testing.T) {
	for _, theme := range []string{settings.ThemeDark, settings.ThemeLight, settings.ThemeSystem} {
		applyTheme(theme)
		if mutedStyle.Render("x") == "" {
			t.Fatalf("theme %q produced empty styles", theme)
		}
	}
	applyTheme(settings.ThemeDark)
}

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}
	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

// timeSinceStart guards against accidental wall-clock coupling: the tick
// chain, not elapsed time, drives the countdown.
func TestCountdownIgnoresWallClock(t *testing.T) {
	app, s, engine := newTestApp(t)
	p, _ := s.CreateProject("Deep Work", "", "#E0544C")
	c, _ := s.CreateCategory(p.ID, "Writing")
	engine.SetTask(p, c)
	engine.Start()

	before := engine.TimeLeft()
	time.Sleep(10 * time.Millisecond)
	if engine.TimeLeft() != before {
		t.Fatal("countdown must only move on ticks")
	}
	_ = app
}
