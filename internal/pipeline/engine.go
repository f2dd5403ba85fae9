package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skitterhq/skitter/internal/hook"
)

// ErrNotReady is returned by Run when the engine already ran.
// An Engine drives exactly one crawl; build a new one to run again.
var ErrNotReady = errors.New("engine is not in the ready state")

// State is the engine's lifecycle position. Transitions are forward
// only: Ready, Running, Stopping, Stopped.
type State int

const (
	// StateReady means Run has not been called yet.
	StateReady State = iota

	// StateRunning means phases are executing.
	StateRunning

	// StateStopping means a graceful stop was requested; the current
	// phase finishes and skippable phases are skipped.
	StateStopping

	// StateStopped is terminal.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Engine executes an ordered list of phases and owns the run state.
// It announces each phase on the pipeline-begin and pipeline-end
// events; a skipped phase announces nothing.
type Engine struct {
	pipelines []Pipeline
	reg       *hook.Registry
	logger    *slog.Logger

	mu      sync.Mutex
	state   State
	current Pipeline
}

// Option is a function that configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
// If not set, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine over the given phases, executed in
// order. It registers the pipeline-begin and pipeline-end events on
// reg.
func NewEngine(reg *hook.Registry, pipelines []Pipeline, opts ...Option) (*Engine, error) {
	e := &Engine{
		pipelines: pipelines,
		reg:       reg,
		state:     StateReady,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	for _, name := range []hook.Name{hook.PipelineBegin, hook.PipelineEnd} {
		if err := reg.Events.Register(name); err != nil {
			return nil, fmt.Errorf("register %s event: %w", name, err)
		}
	}
	return e, nil
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Run executes the phases in order and blocks until the run ends.
// It fails with ErrNotReady unless the engine is in the ready state.
//
// While the engine is stopping, phases marked skippable are passed over
// without begin/end events. The first phase failure ends the run
// immediately; the caller classifies the error into an exit status.
//
// Design decision: We check context cancellation at phase boundaries
// rather than aborting a phase mid-flight. Phases handle their own
// cancellation internally; the boundary check is what makes a forceful
// stop (context cancel) take effect even when the current phase already
// returned.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateReady {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotReady, state)
	}
	e.state = StateRunning
	e.mu.Unlock()

	defer e.finish()

	for _, p := range e.pipelines {
		select {
		case <-ctx.Done():
			e.logger.Warn("run cancelled",
				"pipeline", p.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		e.mu.Lock()
		if e.state == StateStopping && p.Skippable() {
			e.mu.Unlock()
			e.logger.Debug("skipping pipeline", "pipeline", p.Name())
			continue
		}
		e.current = p
		e.mu.Unlock()

		if err := e.reg.Events.Notify(ctx, hook.PipelineBegin, p.Name()); err != nil {
			return fmt.Errorf("pipeline-begin listener: %w", err)
		}

		e.logger.Info("executing pipeline", "pipeline", p.Name())
		if err := p.Process(ctx); err != nil {
			e.logger.Debug("pipeline failed",
				"pipeline", p.Name(),
				"error", err,
			)
			return err
		}

		if err := e.reg.Events.Notify(ctx, hook.PipelineEnd, p.Name()); err != nil {
			return fmt.Errorf("pipeline-end listener: %w", err)
		}

		e.mu.Lock()
		e.current = nil
		e.mu.Unlock()
	}
	return nil
}

// finish drives the state to Stopped at the end of a run.
func (e *Engine) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		e.state = StateStopping
	}
	e.state = StateStopped
	e.current = nil
}

// Stop requests a graceful stop. It only acts while the engine is
// running: the state flips to stopping and the currently executing
// phase is asked to wind down. Later skippable phases will be skipped;
// cleanup phases still run.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	e.state = StateStopping
	current := e.current
	e.mu.Unlock()

	e.logger.Info("graceful stop requested")
	if current != nil {
		current.Stop()
	}
}
