package hook

import (
	"context"
	"fmt"
	"sync"
)

// Func is the callback signature for single-slot hooks. Arguments and the
// return value are dynamically typed; each catalog entry documents the
// concrete types it passes and expects back. The context carries the
// deadline of the operation the hook participates in, so suspending
// callbacks can honor cancellation.
type Func func(ctx context.Context, args ...any) (any, error)

// Dispatcher owns the single-slot hook names of the catalog. Each
// registered name has at most one connected callback; calling an empty
// slot returns ErrDisconnected so the caller falls back to its default
// behavior.
type Dispatcher struct {
	mu    sync.Mutex
	slots map[Name]Func
}

// NewDispatcher returns an empty Dispatcher. Components register the
// names they own at construction time.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{slots: make(map[Name]Func)}
}

// Register claims name as a hook slot. It fails with ErrUnknownName for
// names outside the catalog, ErrWrongKind for event-kind names, and
// ErrAlreadyRegistered when the name is already claimed.
func (d *Dispatcher) Register(name Name) error {
	kind, ok := KindOf(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	if kind != KindHook {
		return fmt.Errorf("%w: %q is an event", ErrWrongKind, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.slots[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	d.slots[name] = nil
	return nil
}

// Connect attaches fn to the slot for name. The slot must be registered
// and empty; a second Connect without an intervening Disconnect fails
// with ErrAlreadyConnected.
func (d *Dispatcher) Connect(name Name, fn Func) error {
	if fn == nil {
		return fmt.Errorf("%w: %q", ErrNilCallback, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	current, exists := d.slots[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	if current != nil {
		return fmt.Errorf("%w: %q", ErrAlreadyConnected, name)
	}
	d.slots[name] = fn
	return nil
}

// Disconnect empties the slot for name. Disconnecting an already-empty
// slot is a no-op; only an unregistered name is an error.
func (d *Dispatcher) Disconnect(name Name) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.slots[name]; !exists {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	d.slots[name] = nil
	return nil
}

// IsRegistered reports whether name has been claimed.
func (d *Dispatcher) IsRegistered(name Name) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.slots[name]
	return exists
}

// IsConnected reports whether name currently has a callback.
func (d *Dispatcher) IsConnected(name Name) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slots[name] != nil
}

// Call invokes the connected callback with args and returns its result.
// It fails with ErrNotRegistered for unclaimed names and ErrDisconnected
// for empty slots. The callback runs outside the dispatcher lock.
func (d *Dispatcher) Call(ctx context.Context, name Name, args ...any) (any, error) {
	d.mu.Lock()
	fn, exists := d.slots[name]
	d.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrDisconnected, name)
	}
	return fn(ctx, args...)
}
