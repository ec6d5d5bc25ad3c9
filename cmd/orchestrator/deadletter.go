package main

import (
	"context"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/orchestrator"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/store"
)

// mongoDeadLetterSink adapts store.DeadLetters to orchestrator.DeadLetterSink,
// kept in cmd/orchestrator rather than internal/store so store has no
// dependency on the orchestrator package's types.
type mongoDeadLetterSink struct {
	letters *store.DeadLetters
}

func (m *mongoDeadLetterSink) Capture(ctx context.Context, entry orchestrator.DeadLetterEntry) error {
	rec := store.DeadLetterRecord{
		RequestID: entry.RequestID,
		UserID:    entry.UserID,
		CardID:    entry.CardID,
		Payload: map[string]any{
			"ocrMetadata":  entry.OCRMetadata,
			"pricing":      entry.Pricing,
			"summary":      entry.Summary,
			"authenticity": entry.Authenticity,
		},
		Error:      entry.Err.Error(),
		CapturedAt: time.Now(),
	}
	return m.letters.Insert(ctx, rec)
}
