// Package eventbus provides the Publisher/Subscriber abstraction spec.md
// §6 requires for CardCreated and CardValuationCompleted events. The
// in-memory implementation stands in for a production broker (the
// teacher's project has no event bus of its own; this package follows
// the teacher's general habit of small, single-purpose internal
// packages with one interface and one concrete type).
package eventbus

import (
	"context"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// Event wraps an EventKind with its JSON-shaped detail payload.
type Event struct {
	Kind   cardmodel.EventKind
	Detail any
}

// Publisher emits an event onto the bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler processes one event. A returned error is logged by the bus but
// does not block delivery to other subscribers.
type Handler func(ctx context.Context, ev Event) error

// Subscriber registers a handler for a given event kind.
type Subscriber interface {
	Subscribe(kind cardmodel.EventKind, handler Handler)
}

// Bus implements Publisher and Subscriber.
type Bus interface {
	Publisher
	Subscriber
}
