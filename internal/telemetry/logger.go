// Package telemetry provides structured logging and per-submission
// step timing, generalizing the teacher's internal/common.RequestContext
// over github.com/rs/zerolog instead of the teacher's plain stdlib log.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog.Logger. Pretty console
// output is used outside production, matching the teacher's habit of
// favoring readable local output over raw JSON during development.
func NewLogger(env string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if env != "production" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
