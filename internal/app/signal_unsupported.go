//go:build js || plan9

package app

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/skitterhq/skitter/internal/pipeline"
)

// InstallSignalHandlers installs nothing on platforms without process
// signal support; stopping a run there needs context cancellation.
func InstallSignalHandlers(_ *pipeline.Engine, _ context.CancelFunc, logger *slog.Logger) func() {
	logger.Warn("signal handling is not supported on this platform", "goos", runtime.GOOS)
	return func() {}
}
