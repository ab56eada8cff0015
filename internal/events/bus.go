package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrDuplicateSubscriber is returned when a subscriber ID is already registered
var ErrDuplicateSubscriber = errors.New("subscriber already registered")

// EventBus delivers events synchronously, in subscription order
type EventBus struct {
	mu     sync.RWMutex
	subs   []Subscriber
	logger zerolog.Logger
}

// NewEventBus creates an empty bus
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		logger: logger.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers sub. IDs must be unique.
func (eb *EventBus) Subscribe(sub Subscriber) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, s := range eb.subs {
		if s.ID() == sub.ID() {
			return fmt.Errorf("%w: %s", ErrDuplicateSubscriber, sub.ID())
		}
	}
	eb.subs = append(eb.subs, sub)
	eb.logger.Debug().
		Str("subscriber_id", sub.ID()).
		Int("subscribers", len(eb.subs)).
		Msg("Subscriber added to event bus")
	return nil
}

// Publish hands event to every interested subscriber before returning
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	eb.logger.Trace().
		Str("event_type", event.Type()).
		Str("run_id", event.RunID()).
		Msg("Publishing event")

	for _, sub := range eb.subs {
		if sub.InterestedIn(event.Type()) {
			eb.deliver(sub, event)
		}
	}
}

// deliver isolates a panicking subscriber from the rest
func (eb *EventBus) deliver(sub Subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("subscriber_id", sub.ID()).
				Str("event_type", event.Type()).
				Interface("panic", r).
				Msg("Subscriber panicked while handling event")
		}
	}()
	sub.HandleEvent(event)
}

// Len returns the number of subscribers
func (eb *EventBus) Len() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}
