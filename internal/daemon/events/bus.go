package events

import (
	"context"
	"reflect"
	"sync"

	derrors "git.home.luguber.info/inful/linkmon/internal/errors"
)

// Bus is a small, typed, in-process event bus for daemon orchestration:
// probe transitions fan out to the notifier, sweep completions to the
// gauge refresher, without the control loop blocking on either.
//
//   - Typed subscriptions (via generics); interface subscriptions match
//     any concrete event implementing them
//   - Bounded buffering: Publish blocks until delivered or ctx canceled
//   - Clean shutdown: Close closes all subscription channels
//
// Events are not durable; everything resets with the process. Close may
// only be called once all publishers have stopped.
type Bus struct {
	mu     sync.RWMutex
	subs   map[reflect.Type][]*subscriber
	nextID uint64
	closed bool
}

type subscriber struct {
	id      uint64
	deliver func(ctx context.Context, evt any) error
	close   func()
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type][]*subscriber)}
}

// Subscribe registers a subscription for events of type T and returns
// the receive channel plus an unsubscribe func. Unsubscribing closes the
// channel; so does Bus.Close.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	eventType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	var closeOnce sync.Once
	closeCh := func() { closeOnce.Do(func() { close(ch) }) }

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		closeCh()
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], &subscriber{
		id: id,
		deliver: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return derrors.New(derrors.CategoryInternal, derrors.SeverityError, "event type mismatch").
					WithContext("expected", eventType.String()).
					WithContext("actual", reflect.TypeOf(evt).String()).
					Build()
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return derrors.Wrap(ctx.Err(), derrors.CategoryDaemon, derrors.SeverityWarning, "event delivery canceled").
					WithContext("event_type", eventType.String()).
					Build()
			}
		},
		close: closeCh,
	})
	b.mu.Unlock()

	var unsubOnce sync.Once
	unsubscribe := func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			list := b.subs[eventType]
			for i, s := range list {
				if s.id == id {
					b.subs[eventType] = append(list[:i], list[i+1:]...)
					break
				}
			}
			if len(b.subs[eventType]) == 0 {
				delete(b.subs, eventType)
			}
			b.mu.Unlock()
			closeCh()
		})
	}
	return ch, unsubscribe
}

// SubscriberCount returns the number of active subscriptions for T.
// Intended for tests and diagnostics.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeFor[T]()])
}

// Publish delivers an event to every matching subscriber, blocking per
// subscriber until the event is buffered or ctx ends.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return derrors.ValidationError("event cannot be nil").Build()
	}
	evtType := reflect.TypeOf(evt)

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return derrors.DaemonUnavailable("event bus is closed").Build()
	}
	var targets []*subscriber
	for subType, list := range b.subs {
		match := subType == evtType
		if !match && subType.Kind() == reflect.Interface {
			match = evtType.Implements(subType)
		}
		if match {
			targets = append(targets, list...)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := s.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the bus and all subscription channels.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	toClose := make([]*subscriber, 0, len(b.subs))
	for _, list := range b.subs {
		toClose = append(toClose, list...)
	}
	b.subs = make(map[reflect.Type][]*subscriber)
	b.mu.Unlock()

	for _, s := range toClose {
		s.close()
	}
}
