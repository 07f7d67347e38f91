package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/memorai/internal/platform/logger"
)

// InMemoryEventEmitter fans events out to in-process subscribers keyed by
// topic. Delivery is synchronous on the publisher's goroutine.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	logger   *slog.Logger
}

func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		handlers: make(map[string][]EventHandler),
		logger:   logger.With("component", "event_emitter"),
	}
}

// Subscribe adds handler to topic. Handlers run in subscription order.
func (e *InMemoryEventEmitter) Subscribe(topic string, handler EventHandler) {
	e.mu.Lock()
	e.handlers[topic] = append(e.handlers[topic], handler)
	count := len(e.handlers[topic])
	e.mu.Unlock()

	e.logger.Debug("subscribed handler", "topic", topic, "handler_count", count)
}

// EmitEvent delivers event to every subscriber of event.Type. A failing or
// panicking handler does not stop delivery to the rest; all failures are
// joined into the returned error. An event without subscribers is dropped.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := append([]EventHandler(nil), e.handlers[event.Type]...)
	e.mu.RUnlock()

	log := logger.FromContextOrDefault(ctx, e.logger).With(
		"event_id", event.ID,
		"event_type", event.Type)

	if len(handlers) == 0 {
		log.Warn("dropping event without subscribers")
		return nil
	}

	var errs []error
	for i, h := range handlers {
		if err := deliver(ctx, h, event); err != nil {
			log.Error("event handler failed", "handler_index", i, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, h EventHandler, event *Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("event handler panicked: %v", p)
		}
	}()
	return h.HandleEvent(ctx, event)
}
