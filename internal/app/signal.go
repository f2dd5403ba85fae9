//go:build !(js || plan9)

package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/skitterhq/skitter/internal/pipeline"
)

// signalAction is what the policy decides for one received signal.
type signalAction int

const (
	// actionGraceful asks the engine to wind down: in-flight work
	// finishes and cleanup phases still run.
	actionGraceful signalAction = iota

	// actionForceful cancels the run context outright.
	actionForceful
)

// signalPolicy decides how each received signal is treated: the first
// interrupt is graceful, a repeated interrupt is forceful, and a
// terminate signal is forceful on first receipt.
type signalPolicy struct {
	interrupted bool
}

// action classifies one received signal.
func (p *signalPolicy) action(sig os.Signal) signalAction {
	if sig != os.Interrupt || p.interrupted {
		return actionForceful
	}
	p.interrupted = true
	return actionGraceful
}

// InstallSignalHandlers wires the process signals to a run: the first
// interrupt requests a graceful engine stop, a second interrupt or a
// terminate signal cancels the run context. The returned function
// releases the handlers; calling it is safe after the run ends.
func InstallSignalHandlers(engine *pipeline.Engine, cancel context.CancelFunc, logger *slog.Logger) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		policy := &signalPolicy{}
		for {
			select {
			case sig := <-sigCh:
				if policy.action(sig) == actionForceful {
					logger.Warn("forcing shutdown", "signal", sig.String())
					cancel()
				} else {
					logger.Info("winding down, interrupt again to abort", "signal", sig.String())
					engine.Stop()
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
