package hook

import "errors"

// Dispatch errors.
// These errors are returned by the Dispatcher and EventDispatcher and
// describe misuse of the extension-point contract.
//
// Design decision: The empty-slot case is an error, not a silent no-op.
// A hook owns a decision, so calling one that nobody connected means the
// caller's default path must run instead; callers check IsConnected or
// handle ErrDisconnected explicitly. Events are the opposite: notifying
// with no listeners is an ordinary no-op.
var (
	// ErrUnknownName is returned when a name is not in the catalog.
	ErrUnknownName = errors.New("name not in the extension-point catalog")

	// ErrWrongKind is returned when a hook-kind name is registered as an
	// event or vice versa.
	ErrWrongKind = errors.New("name registered with the wrong kind")

	// ErrAlreadyRegistered is returned when a name is registered twice.
	// Each name has exactly one owning component.
	ErrAlreadyRegistered = errors.New("name already registered")

	// ErrNotRegistered is returned when operating on a name whose owning
	// component never registered it.
	ErrNotRegistered = errors.New("name not registered")

	// ErrAlreadyConnected is returned when connecting a callback to a
	// hook slot that is already occupied. Disconnect the old callback
	// first; hooks never chain.
	ErrAlreadyConnected = errors.New("hook already connected")

	// ErrDisconnected is returned when calling a hook with an empty slot.
	ErrDisconnected = errors.New("hook not connected")

	// ErrNilCallback is returned when connecting or listening with a nil
	// function.
	ErrNilCallback = errors.New("nil callback")

	// ErrNoListener is returned when removing a listener that is not
	// attached to the event.
	ErrNoListener = errors.New("listener not found")
)
