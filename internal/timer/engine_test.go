package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/settings"
	"github.com/sadopc/tomato/internal/store"
)

type fakeSettings struct {
	cfg settings.UserSettings
}

func (f *fakeSettings) Current() settings.UserSettings { return f.cfg }

type fakeRecorder struct {
	sessions []store.TimerSession
	err      error
}

func (f *fakeRecorder) CreateSession(s store.TimerSession) (*store.TimerSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	s.ID = "recorded"
	f.sessions = append(f.sessions, s)
	return &s, nil
}

type fakeNotifier struct {
	calls int
	title string
}

func (f *fakeNotifier) SessionComplete(title, body string, audio, desktop bool) {
	f.calls++
	f.title = title
}

func newTestEngine(t *testing.T) (*Engine, *fakeSettings, *fakeRecorder, *fakeNotifier) {
	t.Helper()
	src := &fakeSettings{cfg: settings.Defaults()}
	rec := &fakeRecorder{}
	n := &fakeNotifier{}
	e := New(src, rec, n, zerolog.Nop())
	return e, src, rec, n
}

func withTask(t *testing.T, e *Engine) {
	t.Helper()
	e.SetTask(
		&store.Project{ID: "p1", Name: "Deep Work"},
		&store.Category{ID: "c1", ProjectID: "p1", Name: "Writing"},
	)
}

// runToZero starts the engine and ticks until the countdown completes.
func runToZero(t *testing.T, e *Engine) TickResult {
	t.Helper()
	gen, started := e.Start()
	if !started {
		gen = e.Generation()
	}
	for i := 0; i < e.TotalTime()+1; i++ {
		res := e.Tick(gen)
		if res.Completed {
			return res
		}
		gen = res.Generation
		if !res.Continue {
			break
		}
	}
	t.Fatal("countdown never completed")
	return TickResult{}
}

// ============================================================
// Durations and modes
// ============================================================

func TestSetModeDerivesDurationFromSettings(t *testing.T) {
	e, src, _, _ := newTestEngine(t)
	src.cfg.WorkDuration = 25
	src.cfg.ShortBreakDuration = 5
	src.cfg.LongBreakDuration = 15

	cases := []struct {
		mode Mode
		want int
	}{
		{ModeWork, 25 * 60},
		{ModeShortBreak, 5 * 60},
		{ModeLongBreak, 15 * 60},
	}
	for _, tc := range cases {
		e.SetMode(tc.mode)
		if e.TimeLeft() != tc.want || e.TotalTime() != tc.want {
			t.Fatalf("%s: timeLeft=%d totalTime=%d, want %d", tc.mode, e.TimeLeft(), e.TotalTime(), tc.want)
		}
	}
}

func TestSetModeWhileRunningPauses(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	e.Start()
	e.SetMode(ModeShortBreak)
	if e.Running() {
		t.Fatal("mode change should force idle")
	}
	if e.SessionStart() != nil {
		t.Fatal("mode change should discard the session start")
	}
}

func TestResetRestoresFullDuration(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	gen, _ := e.Start()
	e.Tick(gen)
	e.Tick(gen)
	if e.TimeLeft() != e.TotalTime()-2 {
		t.Fatalf("expected 2 ticks consumed, timeLeft=%d", e.TimeLeft())
	}

	e.Reset()
	if e.Running() {
		t.Fatal("reset should stop the timer")
	}
	if e.TimeLeft() != e.TotalTime() {
		t.Fatal("reset should restore the full duration")
	}
	if e.SessionStart() != nil {
		t.Fatal("reset should clear the session start")
	}
}

// ============================================================
// Tick discipline
// ============================================================

func TestTickNoopWhenIdle(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	before := e.TimeLeft()
	res := e.Tick(e.Generation())
	if e.TimeLeft() != before {
		t.Fatal("tick should not decrement while idle")
	}
	if res.Continue {
		t.Fatal("idle tick must not re-arm")
	}
}

func TestTickStaleGenerationDropped(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	gen, _ := e.Start()
	e.Pause()

	// The tick scheduled before the pause arrives late.
	before := e.TimeLeft()
	res := e.Tick(gen)
	if e.TimeLeft() != before {
		t.Fatal("stale tick must not decrement")
	}
	if res.Continue {
		t.Fatal("stale tick must not re-arm")
	}

	// Resume issues a fresh generation; the old one stays dead.
	gen2, _ := e.Start()
	if gen2 == gen {
		t.Fatal("resume should issue a new generation")
	}
	e.Tick(gen)
	if e.TimeLeft() != before {
		t.Fatal("old generation still must not decrement")
	}
	e.Tick(gen2)
	if e.TimeLeft() != before-1 {
		t.Fatal("current generation should decrement")
	}
}

func TestRepeatedStartIsNoop(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	gen1, started := e.Start()
	if !started {
		t.Fatal("first start should run")
	}
	gen2, started := e.Start()
	if started {
		t.Fatal("second start must be a no-op")
	}
	if gen1 != gen2 {
		t.Fatal("repeated start must not spawn a second tick chain")
	}
}

func TestTimeLeftNeverNegative(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	withTask(t, e)
	e.timeLeft = 1
	gen, _ := e.Start()

	res := e.Tick(gen)
	if !res.Completed {
		t.Fatal("expected completion")
	}
	if e.TimeLeft() < 0 {
		t.Fatalf("timeLeft went negative: %d", e.TimeLeft())
	}

	// A stray extra tick after completion is inert.
	e.Tick(gen)
	if e.TimeLeft() != e.TotalTime() {
		t.Fatal("post-completion tick should not change state")
	}
}

// ============================================================
// Session start semantics
// ============================================================

func TestResumePreservesSessionStart(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	t0 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	now := t0
	e.now = func() time.Time { return now }

	e.Start()
	first := e.SessionStart()
	if first == nil || !first.Equal(t0) {
		t.Fatalf("expected session start %v, got %v", t0, first)
	}

	e.Pause()
	now = t0.Add(5 * time.Minute)
	e.Start()
	if got := e.SessionStart(); !got.Equal(t0) {
		t.Fatalf("resume must keep the original start, got %v", got)
	}

	// A fresh start after reset stamps a new time.
	e.Pause()
	e.Reset()
	now = t0.Add(time.Hour)
	e.Start()
	if got := e.SessionStart(); !got.Equal(t0.Add(time.Hour)) {
		t.Fatalf("fresh start should stamp a new time, got %v", got)
	}
}

// ============================================================
// Completion and mode sequencing
// ============================================================

func TestWorkCompletionRecordsFullSession(t *testing.T) {
	e, src, rec, _ := newTestEngine(t)
	src.cfg.WorkDuration = 25
	withTask(t, e)
	e.SetMode(ModeWork)

	e.timeLeft = 1
	gen, _ := e.Start()
	res := e.Tick(gen)

	if !res.Completed || res.Ended != ModeWork {
		t.Fatalf("expected work completion, got %+v", res)
	}
	if len(rec.sessions) != 1 {
		t.Fatalf("expected 1 recorded session, got %d", len(rec.sessions))
	}
	sess := rec.sessions[0]
	if sess.PlannedMs != 1500000 || sess.ActualMs != 1500000 {
		t.Fatalf("expected full 1500000ms, got planned=%d actual=%d", sess.PlannedMs, sess.ActualMs)
	}
	if !sess.Completed {
		t.Fatal("natural completion must set completed=true")
	}
	if sess.Type != store.SessionWork {
		t.Fatalf("wrong type %q", sess.Type)
	}
	if e.CompletedPomodoros() != 1 {
		t.Fatalf("expected 1 completed pomodoro, got %d", e.CompletedPomodoros())
	}
}

func TestLongBreakEveryFourthCompletion(t *testing.T) {
	e, src, _, _ := newTestEngine(t)
	src.cfg.LongBreakInterval = 4
	withTask(t, e)

	// work→short→work→short→work→short→work→long
	var gotModes []Mode
	for i := 0; i < 4; i++ {
		if e.Mode() != ModeWork {
			t.Fatalf("cycle %d should begin in work, got %s", i, e.Mode())
		}
		e.timeLeft = 1
		res := runOneTick(t, e)
		gotModes = append(gotModes, res.NextMode)

		// Finish the break to get back to work.
		if res.NextMode != ModeWork {
			e.timeLeft = 1
			runOneTick(t, e)
		}
	}

	want := []Mode{ModeShortBreak, ModeShortBreak, ModeShortBreak, ModeLongBreak}
	for i := range want {
		if gotModes[i] != want[i] {
			t.Fatalf("completion %d: got %s, want %s (sequence %v)", i+1, gotModes[i], want[i], gotModes)
		}
	}
}

func runOneTick(t *testing.T, e *Engine) TickResult {
	t.Helper()
	gen, _ := e.Start()
	res := e.Tick(gen)
	if !res.Completed {
		t.Fatal("expected completion on single tick")
	}
	return res
}

func TestBreakCompletionReturnsToWork(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	withTask(t, e)
	e.SetMode(ModeShortBreak)

	e.timeLeft = 1
	res := runOneTick(t, e)
	if res.NextMode != ModeWork {
		t.Fatalf("break should lead to work, got %s", res.NextMode)
	}
	if e.CompletedPomodoros() != 0 {
		t.Fatal("breaks must not count as pomodoros")
	}
}

func TestPomodoroCountsOnlyNaturalCompletions(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	withTask(t, e)

	gen, _ := e.Start()
	e.Tick(gen)
	e.Pause()
	if _, err := e.SaveProgress(); err != nil {
		t.Fatal(err)
	}
	if e.CompletedPomodoros() != 0 {
		t.Fatal("manual save must not increment completed pomodoros")
	}
}

func TestAutoStartBreaksAfterWork(t *testing.T) {
	e, src, _, _ := newTestEngine(t)
	src.cfg.AutoStartBreaks = true
	withTask(t, e)

	e.timeLeft = 1
	res := runOneTick(t, e)
	if !res.AutoStarted || !res.Continue {
		t.Fatalf("break should auto-start after work: %+v", res)
	}
	if !e.Running() || e.Mode() != ModeShortBreak {
		t.Fatalf("engine should be running the break, mode=%s running=%v", e.Mode(), e.Running())
	}

	// The break completing must NOT auto-chain into work.
	e.timeLeft = 1
	res = e.Tick(res.Generation)
	if !res.Completed {
		t.Fatal("expected break completion")
	}
	if res.AutoStarted || e.Running() {
		t.Fatal("breaks must never auto-chain into work")
	}
}

func TestCompletionNotifies(t *testing.T) {
	e, _, _, n := newTestEngine(t)
	withTask(t, e)

	e.timeLeft = 1
	runOneTick(t, e)
	if n.calls != 1 {
		t.Fatalf("expected 1 notification, got %d", n.calls)
	}
	if n.title != "Work finished" {
		t.Fatalf("unexpected title %q", n.title)
	}
}

// ============================================================
// Automatic completion error policy
// ============================================================

func TestCompletionWithoutTaskIsSilent(t *testing.T) {
	e, _, rec, _ := newTestEngine(t)
	// No project/category set.

	e.timeLeft = 1
	res := runOneTick(t, e)
	if !res.Completed {
		t.Fatal("completion should still advance the timer")
	}
	if len(rec.sessions) != 0 {
		t.Fatal("nothing should be persisted without a task")
	}
	if e.Mode() != ModeShortBreak {
		t.Fatalf("mode should still advance, got %s", e.Mode())
	}
}

func TestCompletionSwallowsPersistenceError(t *testing.T) {
	e, _, rec, _ := newTestEngine(t)
	withTask(t, e)
	rec.err = errors.New("disk full")

	e.timeLeft = 1
	res := runOneTick(t, e)
	if !res.Completed {
		t.Fatal("persistence failure must not break completion")
	}
	if e.Mode() != ModeShortBreak {
		t.Fatal("mode should advance despite the error")
	}
}

// ============================================================
// Manual save
// ============================================================

func TestManualSavePartialSession(t *testing.T) {
	e, src, rec, _ := newTestEngine(t)
	src.cfg.WorkDuration = 25
	withTask(t, e)
	e.SetMode(ModeWork)

	e.Start()
	e.timeLeft = 900 // 10 of 25 minutes elapsed

	sess, err := e.SaveProgress()
	if err != nil {
		t.Fatal(err)
	}
	if sess.ActualMs != 600000 {
		t.Fatalf("expected actual 600000ms, got %d", sess.ActualMs)
	}
	if sess.Completed {
		t.Fatal("partial save must not be completed")
	}
	if len(rec.sessions) != 1 {
		t.Fatalf("expected 1 persisted session, got %d", len(rec.sessions))
	}

	// Save resets the countdown.
	if e.Running() || e.SessionStart() != nil || e.TimeLeft() != e.TotalTime() {
		t.Fatal("save should reset the engine")
	}
}

func TestManualSaveWithoutTaskFails(t *testing.T) {
	e, _, rec, _ := newTestEngine(t)
	e.Start()

	_, err := e.SaveProgress()
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	if len(rec.sessions) != 0 {
		t.Fatal("nothing must be persisted")
	}
}

func TestManualSaveWithoutStartFails(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	withTask(t, e)

	_, err := e.SaveProgress()
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestManualSavePropagatesPersistenceError(t *testing.T) {
	e, _, rec, _ := newTestEngine(t)
	withTask(t, e)
	rec.err = errors.New("disk full")
	e.Start()

	_, err := e.SaveProgress()
	if err == nil {
		t.Fatal("manual save must surface persistence errors")
	}
}

// ============================================================
// Validation
// ============================================================

func TestValidateSession(t *testing.T) {
	now := time.Now()
	valid := store.TimerSession{
		ProjectID:  "p1",
		CategoryID: "c1",
		Type:       store.SessionWork,
		PlannedMs:  1500000,
		ActualMs:   600000,
		StartTime:  now,
	}
	if err := validateSession(valid); err != nil {
		t.Fatalf("valid session rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*store.TimerSession)
	}{
		{"missing project", func(s *store.TimerSession) { s.ProjectID = "" }},
		{"missing category", func(s *store.TimerSession) { s.CategoryID = "" }},
		{"zero start", func(s *store.TimerSession) { s.StartTime = time.Time{} }},
		{"zero planned", func(s *store.TimerSession) { s.PlannedMs = 0 }},
		{"negative actual", func(s *store.TimerSession) { s.ActualMs = -1 }},
		{"unknown type", func(s *store.TimerSession) { s.Type = "nap" }},
	}
	for _, tc := range cases {
		s := valid
		tc.mutate(&s)
		if err := validateSession(s); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("%s: expected ErrInvalidSession, got %v", tc.name, err)
		}
	}
}

// ============================================================
// End to end against the real store
// ============================================================

func TestEngineAgainstSQLiteStore(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	p, err := s.CreateProject("Deep Work", "", "#E0544C")
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.CreateCategory(p.ID, "Writing")
	if err != nil {
		t.Fatal(err)
	}

	src := &fakeSettings{cfg: settings.Defaults()}
	src.cfg.WorkDuration = 1
	e := New(src, s, &fakeNotifier{}, zerolog.Nop())
	e.SetTask(p, c)

	res := runToZero(t, e)
	if !res.Completed {
		t.Fatal("expected completion")
	}

	sessions, err := s.ListSessions(store.SessionFilter{ProjectID: &p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 persisted session, got %d", len(sessions))
	}
	if sessions[0].ActualMs != 60000 || !sessions[0].Completed {
		t.Fatalf("unexpected session: %+v", sessions[0])
	}
}
