package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// DeadLetterRecord is the persisted shape of an orchestrator.DeadLetterEntry,
// kept independent of the orchestrator package so store has no import-cycle
// dependency on it; cmd/orchestrator's mongoDeadLetterSink maps the
// orchestrator's entry type onto this one.
type DeadLetterRecord struct {
	RequestID string    `bson:"requestId"`
	UserID    string    `bson:"userId"`
	CardID    string    `bson:"cardId"`
	Payload   any       `bson:"payload"`
	Error     string    `bson:"error"`
	CapturedAt time.Time `bson:"capturedAt"`
}

// DeadLetters persists entries the Result Aggregator could not commit
// after exhausting its retries, for manual inspection per spec.md §4.6.
type DeadLetters struct {
	collection *mongo.Collection
}

// NewDeadLetters wires a dead-letter collection off the same database
// the Mongo handle uses for cards.
func NewDeadLetters(m *Mongo) *DeadLetters {
	return &DeadLetters{collection: m.db.Collection("dead_letters")}
}

// Insert stores rec for later manual review.
func (d *DeadLetters) Insert(ctx context.Context, rec DeadLetterRecord) error {
	if _, err := d.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert dead-letter record: %w", err)
	}
	return nil
}
