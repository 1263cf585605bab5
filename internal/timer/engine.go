// Package timer implements the countdown state machine: a one-second tick
// loop over work/short-break/long-break modes, with session recording on
// completion or manual save. The engine owns no goroutines; the caller
// drives Tick once per wall-clock second while the engine is running.
package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/settings"
	"github.com/sadopc/tomato/internal/store"
)

// Mode is the current timer phase.
type Mode string

const (
	ModeWork       Mode = store.SessionWork
	ModeShortBreak Mode = store.SessionShortBreak
	ModeLongBreak  Mode = store.SessionLongBreak
)

// Label returns the human-readable phase name.
func (m Mode) Label() string {
	switch m {
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "Work"
	}
}

var (
	// ErrNoActiveSession is returned by SaveProgress when there is no
	// project, category or recorded start time to attribute the session to.
	ErrNoActiveSession = errors.New("no active session to save")

	// ErrInvalidSession is returned when a session record fails validation.
	ErrInvalidSession = errors.New("invalid session")
)

// Recorder persists completed or manually saved sessions.
type Recorder interface {
	CreateSession(store.TimerSession) (*store.TimerSession, error)
}

// SettingsSource is a synchronous read of current user settings. The engine
// calls it on every reset and mode change, so it must not block.
type SettingsSource interface {
	Current() settings.UserSettings
}

// Notifier announces a finished countdown.
type Notifier interface {
	SessionComplete(title, body string, audio, desktop bool)
}

// Engine is the countdown state machine. Not safe for concurrent use; the
// bubbletea update loop serializes all access.
type Engine struct {
	settings SettingsSource
	recorder Recorder
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time

	running   bool
	mode      Mode
	timeLeft  int // seconds
	totalTime int // seconds

	project  *store.Project
	category *store.Category

	completedPomodoros int
	sessionStart       *time.Time

	// generation invalidates scheduled ticks whenever the engine leaves the
	// running state, so a stale queued tick can never decrement an idle
	// engine. At most one live tick chain exists per generation.
	generation int
}

func New(src SettingsSource, rec Recorder, n Notifier, log zerolog.Logger) *Engine {
	e := &Engine{
		settings: src,
		recorder: rec,
		notifier: n,
		log:      log,
		now:      time.Now,
		mode:     ModeWork,
	}
	e.reloadDuration()
	return e
}

func (e *Engine) Running() bool              { return e.running }
func (e *Engine) Mode() Mode                 { return e.mode }
func (e *Engine) TimeLeft() int              { return e.timeLeft }
func (e *Engine) TotalTime() int             { return e.totalTime }
func (e *Engine) CompletedPomodoros() int    { return e.completedPomodoros }
func (e *Engine) Project() *store.Project    { return e.project }
func (e *Engine) Category() *store.Category  { return e.category }
func (e *Engine) SessionStart() *time.Time   { return e.sessionStart }
func (e *Engine) Generation() int            { return e.generation }

// SetTask selects the project and category the next sessions are recorded
// against. Clearing either is allowed; saves are rejected until both are set.
func (e *Engine) SetTask(p *store.Project, c *store.Category) {
	e.project = p
	e.category = c
}

// Start begins (or resumes) the countdown. It returns the tick generation to
// tag scheduled ticks with, and false when the engine was already running —
// a repeated Start must not spawn a second tick chain.
func (e *Engine) Start() (int, bool) {
	if e.running {
		return e.generation, false
	}
	e.running = true
	e.generation++
	// Resuming a paused countdown keeps the original session start, so a
	// pause/resume pair remains one logical session.
	if e.sessionStart == nil {
		t := e.now()
		e.sessionStart = &t
	}
	return e.generation, true
}

// Pause stops the countdown without clearing session state; Start resumes
// the same logical session.
func (e *Engine) Pause() {
	if !e.running {
		return
	}
	e.running = false
	e.generation++
}

// Reset returns to idle, recomputing the full duration for the current mode
// from settings and discarding any in-progress session.
func (e *Engine) Reset() {
	e.running = false
	e.generation++
	e.sessionStart = nil
	e.reloadDuration()
}

// SetMode switches the timer phase. Switching while running implicitly
// pauses; the in-progress session is discarded.
func (e *Engine) SetMode(m Mode) {
	e.mode = m
	e.Reset()
}

func (e *Engine) reloadDuration() {
	d := e.settings.Current().Duration(string(e.mode))
	e.totalTime = int(d.Seconds())
	e.timeLeft = e.totalTime
}

// TickResult reports what a Tick did, so the caller can decide whether to
// schedule the next one.
type TickResult struct {
	Generation  int
	Continue    bool // schedule another tick
	Completed   bool // the countdown reached zero on this tick
	Ended       Mode // the mode that just finished, when Completed
	NextMode    Mode
	AutoStarted bool
}

// Tick advances the countdown by one second. Ticks carrying a stale
// generation, or arriving while the engine is idle, are ignored.
func (e *Engine) Tick(generation int) TickResult {
	if !e.running || generation != e.generation || e.timeLeft == 0 {
		return TickResult{Generation: e.generation}
	}

	e.timeLeft--
	if e.timeLeft > 0 {
		return TickResult{Generation: e.generation, Continue: true}
	}

	return e.complete()
}

// complete handles a countdown reaching zero: record the session, advance
// the mode, optionally auto-start a break, and notify.
func (e *Engine) complete() TickResult {
	e.running = false
	e.generation++
	ended := e.mode

	e.recordCompletion()

	next := ModeWork
	if ended == ModeWork {
		e.completedPomodoros++
		if interval := e.settings.Current().LongBreakInterval; interval > 0 && e.completedPomodoros%interval == 0 {
			next = ModeLongBreak
		} else {
			next = ModeShortBreak
		}
	}
	e.SetMode(next)

	cfg := e.settings.Current()
	res := TickResult{
		Completed: true,
		Ended:     ended,
		NextMode:  next,
	}

	// Breaks never auto-chain into work.
	if cfg.AutoStartBreaks && ended == ModeWork {
		gen, started := e.Start()
		res.AutoStarted = started
		res.Continue = started
		res.Generation = gen
	} else {
		res.Generation = e.generation
	}

	if e.notifier != nil {
		title := ended.Label() + " finished"
		body := "Up next: " + next.Label()
		e.notifier.SessionComplete(title, body, cfg.AudioEnabled, cfg.NotificationsEnabled)
	}
	return res
}

// recordCompletion persists the finished countdown. Completion fires from a
// background tick, so every failure here is logged and swallowed: a missing
// project or category, or a storage error, must never interrupt the timer.
func (e *Engine) recordCompletion() {
	sess, err := e.buildSession()
	if err != nil {
		e.log.Info().Err(err).Str("mode", string(e.mode)).Msg("session not recorded")
		e.sessionStart = nil
		return
	}
	if _, err := e.recorder.CreateSession(*sess); err != nil {
		e.log.Error().Err(err).Str("mode", string(e.mode)).Msg("persist completed session")
	}
	e.sessionStart = nil
}

// SaveProgress records the partially elapsed session on explicit user
// request, then resets the countdown. Unlike automatic completion this path
// fails loudly: the user asked for a save and expects feedback.
func (e *Engine) SaveProgress() (*store.TimerSession, error) {
	sess, err := e.buildSession()
	if err != nil {
		return nil, err
	}
	saved, err := e.recorder.CreateSession(*sess)
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	e.Reset()
	return saved, nil
}

func (e *Engine) buildSession() (*store.TimerSession, error) {
	if e.project == nil || e.category == nil || e.sessionStart == nil {
		return nil, ErrNoActiveSession
	}

	end := e.now()
	sess := store.TimerSession{
		ProjectID:  e.project.ID,
		CategoryID: e.category.ID,
		Type:       string(e.mode),
		PlannedMs:  int64(e.totalTime) * 1000,
		ActualMs:   int64(e.totalTime-e.timeLeft) * 1000,
		StartTime:  *e.sessionStart,
		EndTime:    &end,
		Completed:  e.timeLeft == 0,
	}
	if err := validateSession(sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func validateSession(s store.TimerSession) error {
	switch {
	case s.ProjectID == "" || s.CategoryID == "":
		return fmt.Errorf("%w: missing project or category", ErrInvalidSession)
	case s.StartTime.IsZero():
		return fmt.Errorf("%w: missing start time", ErrInvalidSession)
	case s.PlannedMs <= 0:
		return fmt.Errorf("%w: planned duration must be positive", ErrInvalidSession)
	case s.ActualMs < 0:
		return fmt.Errorf("%w: negative actual duration", ErrInvalidSession)
	case !store.ValidSessionType(s.Type):
		return fmt.Errorf("%w: unknown session type %q", ErrInvalidSession, s.Type)
	}
	return nil
}
