package eventbus

import (
	"context"
	"sync"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/rs/zerolog"
)

// InMemoryBus dispatches events synchronously to registered handlers on
// a goroutine per handler invocation, keeping a failing subscriber from
// blocking others or the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[cardmodel.EventKind][]Handler
	log      zerolog.Logger
}

// NewInMemoryBus builds an empty bus.
func NewInMemoryBus(log zerolog.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[cardmodel.EventKind][]Handler),
		log:      log,
	}
}

// Subscribe registers handler to run whenever an event of kind is published.
func (b *InMemoryBus) Subscribe(kind cardmodel.EventKind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

// Publish fans ev out to every subscriber of its kind, waiting for all to finish.
func (b *InMemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[ev.Kind]...)
	b.mu.RUnlock()

	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := h(ctx, ev); err != nil {
				b.log.Error().Err(err).Str("eventKind", string(ev.Kind)).Msg("event handler failed")
			}
		}(h)
	}
	wg.Wait()
	return nil
}
