// Package notify delivers end-of-session cues: a terminal bell and an
// optional desktop notification. Delivery is best effort; failures are
// logged and never reach the timer.
package notify

import (
	"fmt"
	"os"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Notifier announces a finished countdown.
type Notifier interface {
	SessionComplete(title, body string, audio, desktop bool)
}

// Desktop sends desktop notifications via the OS notification service and
// rings the terminal bell for the audio cue.
type Desktop struct {
	log zerolog.Logger
}

func NewDesktop(log zerolog.Logger) *Desktop {
	return &Desktop{log: log}
}

func (d *Desktop) SessionComplete(title, body string, audio, desktop bool) {
	if audio {
		fmt.Fprint(os.Stderr, "\a")
	}
	if desktop {
		if err := beeep.Notify(title, body, ""); err != nil {
			d.log.Warn().Err(err).Msg("desktop notification failed")
		}
	}
}

// Nop discards all notifications. Used in tests and one-shot CLI commands.
type Nop struct{}

func (Nop) SessionComplete(string, string, bool, bool) {}
