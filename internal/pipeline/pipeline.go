package pipeline

import "context"

// Pipeline defines the interface that all crawl phases must implement.
// Phases are executed in sequence by the Engine.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows phases to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. Skippable and Stop are per-phase decisions, not engine policy
type Pipeline interface {
	// Process executes the phase and blocks until it completes.
	// It receives the context for cancellation. Returning an error ends
	// the whole run; recoverable per-item failures should be handled
	// inside the phase.
	Process(ctx context.Context) error

	// Name returns the phase's name for logging purposes.
	Name() string

	// Skippable reports whether the phase may be skipped when the
	// engine is stopping. Cleanup phases return false so they run even
	// during a graceful shutdown.
	Skippable() bool

	// Stop asks a running phase to wind down cooperatively. It must
	// not block and may be a no-op for phases with nothing to
	// interrupt.
	Stop()
}

// Func adapts a plain function into a Pipeline with a no-op Stop.
type Func struct {
	name      string
	skippable bool
	fn        func(ctx context.Context) error
}

// NewFunc returns a Pipeline running fn under the given name.
func NewFunc(name string, skippable bool, fn func(ctx context.Context) error) *Func {
	return &Func{name: name, skippable: skippable, fn: fn}
}

// Process runs the wrapped function.
func (f *Func) Process(ctx context.Context) error { return f.fn(ctx) }

// Name returns the phase name.
func (f *Func) Name() string { return f.name }

// Skippable reports whether the phase may be skipped while stopping.
func (f *Func) Skippable() bool { return f.skippable }

// Stop is a no-op; the wrapped function observes ctx instead.
func (f *Func) Stop() {}
