package hook

import (
	"context"
	"fmt"
	"sync"
)

// ListenerFunc is the callback signature for event listeners. A non-nil
// return aborts the notification: remaining listeners are not invoked and
// the error propagates to the notifier.
type ListenerFunc func(ctx context.Context, args ...any) error

// ListenerID identifies one attached listener for later removal.
// Callback functions are not comparable in Go, so AddListener hands back
// an identifier instead of keying on the function itself.
type ListenerID int64

type listener struct {
	id ListenerID
	fn ListenerFunc
}

// EventDispatcher owns the multi-listener event names of the catalog.
// Unlike hook slots, notifying an event with no listeners is an ordinary
// no-op.
type EventDispatcher struct {
	mu     sync.Mutex
	events map[Name][]listener
	nextID ListenerID
}

// NewEventDispatcher returns an empty EventDispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{events: make(map[Name][]listener)}
}

// Register claims name as an event. It fails with ErrUnknownName for
// names outside the catalog, ErrWrongKind for hook-kind names, and
// ErrAlreadyRegistered when the name is already claimed.
func (d *EventDispatcher) Register(name Name) error {
	kind, ok := KindOf(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	if kind != KindEvent {
		return fmt.Errorf("%w: %q is a hook", ErrWrongKind, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.events[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	d.events[name] = nil
	return nil
}

// AddListener attaches fn to the event and returns an identifier for
// RemoveListener. Listeners are notified in attachment order.
func (d *EventDispatcher) AddListener(name Name, fn ListenerFunc) (ListenerID, error) {
	if fn == nil {
		return 0, fmt.Errorf("%w: %q", ErrNilCallback, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.events[name]; !exists {
		return 0, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	d.nextID++
	id := d.nextID
	d.events[name] = append(d.events[name], listener{id: id, fn: fn})
	return id, nil
}

// RemoveListener detaches the listener identified by id. It fails with
// ErrNoListener when id is not attached to the event.
func (d *EventDispatcher) RemoveListener(name Name, id ListenerID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	listeners, exists := d.events[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	for i, l := range listeners {
		if l.id == id {
			d.events[name] = append(listeners[:i:i], listeners[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q id %d", ErrNoListener, name, id)
}

// IsRegistered reports whether name has been claimed.
func (d *EventDispatcher) IsRegistered(name Name) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.events[name]
	return exists
}

// ListenerCount returns the number of attached listeners.
func (d *EventDispatcher) ListenerCount(name Name) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events[name])
}

// Notify invokes every listener in attachment order. Zero listeners is a
// no-op. If a listener returns an error, the remaining listeners are not
// invoked and the error propagates immediately. Listeners run outside
// the dispatcher lock.
func (d *EventDispatcher) Notify(ctx context.Context, name Name, args ...any) error {
	d.mu.Lock()
	listeners, exists := d.events[name]
	snapshot := make([]listener, len(listeners))
	copy(snapshot, listeners)
	d.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	for _, l := range snapshot {
		if err := l.fn(ctx, args...); err != nil {
			return fmt.Errorf("event %q listener: %w", name, err)
		}
	}
	return nil
}
