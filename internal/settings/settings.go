package settings

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/tomato/internal/store"
)

// Theme values for the TUI palette.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// UserSettings is the singleton settings record. Durations are in minutes.
type UserSettings struct {
	WorkDuration         int
	ShortBreakDuration   int
	LongBreakDuration    int
	LongBreakInterval    int
	AudioEnabled         bool
	NotificationsEnabled bool
	AutoStartBreaks      bool
	Theme                string
}

// Defaults returns the documented default settings.
func Defaults() UserSettings {
	return UserSettings{
		WorkDuration:         25,
		ShortBreakDuration:   5,
		LongBreakDuration:    15,
		LongBreakInterval:    4,
		AudioEnabled:         true,
		NotificationsEnabled: true,
		AutoStartBreaks:      false,
		Theme:                ThemeSystem,
	}
}

// Duration returns the configured countdown length for a session type.
func (u UserSettings) Duration(sessionType string) time.Duration {
	switch sessionType {
	case store.SessionShortBreak:
		return time.Duration(u.ShortBreakDuration) * time.Minute
	case store.SessionLongBreak:
		return time.Duration(u.LongBreakDuration) * time.Minute
	default:
		return time.Duration(u.WorkDuration) * time.Minute
	}
}

// Patch is a partial update; nil fields keep their current value.
type Patch struct {
	WorkDuration         *int
	ShortBreakDuration   *int
	LongBreakDuration    *int
	LongBreakInterval    *int
	AudioEnabled         *bool
	NotificationsEnabled *bool
	AutoStartBreaks      *bool
	Theme                *string
}

// Service holds the settings singleton behind a read-through cache. Reads
// never touch the database; writes update the cache first and then persist.
// A failed durable write keeps the cached value and logs a warning — the
// in-memory copy is the source of truth for the running process.
type Service struct {
	mu    sync.RWMutex
	store *store.Store
	log   zerolog.Logger

	current UserSettings
}

// NewService loads persisted settings into the cache, applying defaults for
// any missing key.
func NewService(st *store.Store, log zerolog.Logger) *Service {
	s := &Service{
		store:   st,
		log:     log,
		current: Defaults(),
	}
	s.load()
	return s
}

func (s *Service) load() {
	all, err := s.store.GetAllSettings()
	if err != nil {
		s.log.Warn().Err(err).Msg("load settings, using defaults")
		return
	}
	for _, kv := range all {
		s.apply(kv.Key, kv.Value)
	}
}

func (s *Service) apply(key, value string) {
	switch key {
	case "work_duration":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			s.current.WorkDuration = n
		}
	case "short_break_duration":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			s.current.ShortBreakDuration = n
		}
	case "long_break_duration":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			s.current.LongBreakDuration = n
		}
	case "long_break_interval":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			s.current.LongBreakInterval = n
		}
	case "audio_enabled":
		s.current.AudioEnabled = value == "true"
	case "notifications_enabled":
		s.current.NotificationsEnabled = value == "true"
	case "auto_start_breaks":
		s.current.AutoStartBreaks = value == "true"
	case "theme":
		if value == ThemeLight || value == ThemeDark || value == ThemeSystem {
			s.current.Theme = value
		}
	}
}

// Current returns the cached settings. Synchronous and non-blocking, so the
// timer can read durations mid-countdown.
func (s *Service) Current() UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update merges the patch over current settings, updates the cache and then
// persists. The merged result is returned even when persistence fails.
func (s *Service) Update(p Patch) UserSettings {
	s.mu.Lock()
	if p.WorkDuration != nil {
		s.current.WorkDuration = *p.WorkDuration
	}
	if p.ShortBreakDuration != nil {
		s.current.ShortBreakDuration = *p.ShortBreakDuration
	}
	if p.LongBreakDuration != nil {
		s.current.LongBreakDuration = *p.LongBreakDuration
	}
	if p.LongBreakInterval != nil {
		s.current.LongBreakInterval = *p.LongBreakInterval
	}
	if p.AudioEnabled != nil {
		s.current.AudioEnabled = *p.AudioEnabled
	}
	if p.NotificationsEnabled != nil {
		s.current.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.AutoStartBreaks != nil {
		s.current.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.Theme != nil {
		s.current.Theme = *p.Theme
	}
	merged := s.current
	s.mu.Unlock()

	s.persist(merged)
	return merged
}

// Reset restores defaults, in cache and durably.
func (s *Service) Reset() UserSettings {
	s.mu.Lock()
	s.current = Defaults()
	merged := s.current
	s.mu.Unlock()

	s.persist(merged)
	return merged
}

func (s *Service) persist(u UserSettings) {
	pairs := map[string]string{
		"work_duration":         strconv.Itoa(u.WorkDuration),
		"short_break_duration":  strconv.Itoa(u.ShortBreakDuration),
		"long_break_duration":   strconv.Itoa(u.LongBreakDuration),
		"long_break_interval":   strconv.Itoa(u.LongBreakInterval),
		"audio_enabled":         strconv.FormatBool(u.AudioEnabled),
		"notifications_enabled": strconv.FormatBool(u.NotificationsEnabled),
		"auto_start_breaks":     strconv.FormatBool(u.AutoStartBreaks),
		"theme":                 u.Theme,
	}
	for key, value := range pairs {
		if err := s.store.SetSetting(key, value); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("settings write failed, cache kept")
		}
	}
}
