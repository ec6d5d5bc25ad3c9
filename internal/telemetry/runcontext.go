package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// StepTiming records how long one named pipeline stage took.
type StepTiming struct {
	Step     string
	Started  time.Time
	Duration time.Duration
	Err      error
}

// RunContext tracks the stages of one card submission through the
// pipeline, generalizing the teacher's RequestContext (which tracked
// steps of one OCR request) to the five-stage valuation pipeline.
type RunContext struct {
	CardID    string
	UserID    string
	RequestID string
	log       zerolog.Logger
	started   time.Time
	steps     []StepTiming
}

// NewRunContext starts tracking a submission, logging its start at info level.
func NewRunContext(log zerolog.Logger, requestID, cardID, userID string) *RunContext {
	rc := &RunContext{
		CardID:    cardID,
		UserID:    userID,
		RequestID: requestID,
		log:       log.With().Str("requestId", requestID).Str("cardId", cardID).Logger(),
		started:   time.Now(),
	}
	rc.log.Info().Msg("pipeline run started")
	return rc
}

// Step runs fn, timing and logging it under the given stage name.
func (rc *RunContext) Step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	rc.steps = append(rc.steps, StepTiming{Step: name, Started: start, Duration: d, Err: err})

	ev := rc.log.Info()
	if err != nil {
		ev = rc.log.Error().Err(err)
	}
	ev.Str("step", name).Dur("duration", d).Msg("pipeline step completed")
	return err
}

// Finish logs the total elapsed time and per-step breakdown.
func (rc *RunContext) Finish(err error) {
	ev := rc.log.Info()
	if err != nil {
		ev = rc.log.Error().Err(err)
	}
	ev.Dur("totalDuration", time.Since(rc.started)).Int("steps", len(rc.steps)).Msg("pipeline run finished")
}

// Logger exposes the enriched logger for stages that need ad-hoc log lines.
func (rc *RunContext) Logger() zerolog.Logger { return rc.log }
