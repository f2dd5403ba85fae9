package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/pipeline"
	"github.com/skitterhq/skitter/internal/stats"
)

// Application runs one crawl end to end: it installs the signal policy,
// drives the engine, and settles the process exit status from the run
// error, the per-item failure counters, and the exit-status hook.
//
// Design decision: The engine stays ignorant of exit codes and signals
// because:
//  1. The engine is reusable machinery; only the process boundary knows
//     what a numeric status means
//  2. The signal policy needs both a graceful path (engine stop) and a
//     forceful path (context cancel), which only the owner of the run
//     context can wire together
//  3. Folding the statistics counters into the status is policy, and
//     keeping policy in one place keeps the mapping testable
type Application struct {
	engine *pipeline.Engine
	reg    *hook.Registry
	stats  *stats.Stats
	logger *slog.Logger
	errOut io.Writer
}

// Option configures an Application.
type Option func(*Application)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) {
		a.logger = logger
	}
}

// WithErrorOutput sets where the crash banner is written. Defaults to
// standard error.
func WithErrorOutput(w io.Writer) Option {
	return func(a *Application) {
		a.errOut = w
	}
}

// New creates an Application over an assembled engine. It registers the
// exit-status hook on reg.
func New(reg *hook.Registry, engine *pipeline.Engine, st *stats.Stats, opts ...Option) (*Application, error) {
	a := &Application{
		engine: engine,
		reg:    reg,
		stats:  st,
		logger: slog.Default(),
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := reg.Hooks.Register(hook.ExitStatus); err != nil {
		return nil, fmt.Errorf("register %s hook: %w", hook.ExitStatus, err)
	}
	return a, nil
}

// Run executes the crawl and returns the process exit status. The
// status is always logged before return, crash or not.
func (a *Application) Run(ctx context.Context) ExitStatus {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	release := InstallSignalHandlers(a.engine, cancel, a.logger)
	defer release()

	runErr := a.engine.Run(ctx)
	code := a.exitStatus(ctx, runErr)

	a.logger.Info("run finished", "exit_status", int(code), "meaning", code.String())
	return code
}

// exitStatus settles the final status: classify the run error, fold in
// the observed per-item failure categories, then give the exit-status
// hook final say.
func (a *Application) exitStatus(ctx context.Context, runErr error) ExitStatus {
	code := ExitOK

	if runErr != nil {
		c, expected := Classify(runErr)
		code = UpdateExitCode(code, c)
		if expected {
			a.logger.Error("crawl ended with an error", "error", runErr)
		} else {
			fmt.Fprintf(a.errOut, "unexpected crawl failure: %v\n", runErr)
			fmt.Fprintln(a.errOut, "This looks like a bug; please report it at https://github.com/skitterhq/skitter/issues")
			a.logger.Error("crawl crashed", "error", runErr, "stack", string(debug.Stack()))
		}
	}

	for category, n := range a.stats.Snapshot().Errors {
		if n > 0 {
			code = UpdateExitCode(code, CategoryCode(category))
		}
	}

	if a.reg.Hooks.IsConnected(hook.ExitStatus) {
		value, err := a.reg.Hooks.Call(ctx, hook.ExitStatus, int(code))
		if err != nil {
			a.logger.Warn("exit-status hook failed", "error", err)
		} else if override, ok := asExitStatus(value); ok {
			code = override
		}
	}
	return code
}

// asExitStatus converts a hook return value into an exit status. The
// hook has final say, so any integer is accepted, vocabulary or not.
func asExitStatus(value any) (ExitStatus, bool) {
	switch v := value.(type) {
	case ExitStatus:
		return v, true
	case int:
		return ExitStatus(v), true
	case int64:
		return ExitStatus(v), true
	default:
		return 0, false
	}
}
