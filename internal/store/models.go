package store

import "time"

// Session types. A work session counts toward focus totals; breaks do not.
const (
	SessionWork       = "work"
	SessionShortBreak = "short_break"
	SessionLongBreak  = "long_break"
)

// ValidSessionType reports whether t is one of the three recognized kinds.
func ValidSessionType(t string) bool {
	return t == SessionWork || t == SessionShortBreak || t == SessionLongBreak
}

type Project struct {
	ID          string
	Name        string
	Description string
	Color       string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Category struct {
	ID        string
	ProjectID string
	Name      string
	CreatedAt time.Time
}

// TimerSession is one completed-or-saved timer interval. Durations are in
// milliseconds. Immutable after creation except for administrative
// update/delete.
type TimerSession struct {
	ID         string
	ProjectID  string
	CategoryID string
	Type       string
	PlannedMs  int64
	ActualMs   int64
	StartTime  time.Time
	EndTime    *time.Time
	Completed  bool
	CreatedAt  time.Time
}

type Setting struct {
	Key   string
	Value string
}

// SessionFilter is used to filter timer sessions in queries.
type SessionFilter struct {
	ProjectID  *string
	CategoryID *string
	Type       *string
	From       *time.Time
	To         *time.Time
	Limit      int
}
