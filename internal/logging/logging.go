package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New builds the application logger. The TUI owns stdout, so logs go to a
// file; an empty path yields a disabled logger (used by tests and one-shot
// CLI commands).
func New(path, level string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	if path == "" {
		return zerolog.Nop(), nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	logger := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return logger, f, nil
}
