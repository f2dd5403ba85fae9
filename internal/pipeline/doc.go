// Package pipeline runs the crawl's phases in sequence under a small
// state machine.
//
// A crawl is a fixed list of phases: seed the frontier, fetch until it
// drains, write statistics, close resources. Each phase is a Pipeline
// that blocks in Process until its work is done. The Engine drives the
// list and owns the run state: ready until Run is called, running while
// phases execute, stopping after a graceful stop request, stopped when
// the run ends.
//
// Design decision: Stopping is cooperative and honored at phase
// boundaries. A graceful stop never aborts the phase in flight; it asks
// the phase to wind down and then skips any later phase marked
// skippable, so cleanup phases like statistics and close always run.
// Forceful shutdown is context cancellation, owned by the caller.
package pipeline
