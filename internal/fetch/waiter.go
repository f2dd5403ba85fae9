package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
)

// Waiter paces requests between fetches. The pause before each fetch is
// the politeness delay, grown linearly per previous attempt of the same
// URL and optionally randomized; a connected wait-time hook can replace
// the computed value per call. Independently of the pause, an optional
// rate limiter caps the overall request rate across all workers.
type Waiter struct {
	reg *hook.Registry

	// delay is the base pause before every fetch.
	delay time.Duration

	// retryWait is added per previous attempt, the linear backoff.
	retryWait time.Duration

	// maxWait caps the backoff-grown pause. Zero means uncapped.
	maxWait time.Duration

	// random spreads each pause over 0.5x-1.5x when set.
	random bool

	// limiter caps the request rate across workers, nil for none.
	limiter *rate.Limiter

	logger *slog.Logger

	// randFloat is rand.Float64, injectable for tests.
	randFloat func() float64
}

// WaiterOption configures a Waiter.
type WaiterOption func(*Waiter)

// WithDelay sets the base pause before every fetch.
func WithDelay(d time.Duration) WaiterOption {
	return func(w *Waiter) {
		w.delay = d
	}
}

// WithRetryWait sets the extra pause added per previous attempt.
func WithRetryWait(d time.Duration) WaiterOption {
	return func(w *Waiter) {
		w.retryWait = d
	}
}

// WithMaxWait caps the backoff-grown pause.
func WithMaxWait(d time.Duration) WaiterOption {
	return func(w *Waiter) {
		w.maxWait = d
	}
}

// WithRandomWait spreads each pause over 0.5x-1.5x of the computed
// value so request timing does not fingerprint the crawler.
func WithRandomWait() WaiterOption {
	return func(w *Waiter) {
		w.random = true
	}
}

// WithRateLimit caps the overall request rate in requests per second.
func WithRateLimit(perSecond float64, burst int) WaiterOption {
	return func(w *Waiter) {
		w.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithWaiterLogger sets the logger.
func WithWaiterLogger(logger *slog.Logger) WaiterOption {
	return func(w *Waiter) {
		w.logger = logger
	}
}

// NewWaiter creates a Waiter and registers the wait-time hook on reg.
func NewWaiter(reg *hook.Registry, opts ...WaiterOption) (*Waiter, error) {
	w := &Waiter{
		reg:       reg,
		logger:    slog.Default(),
		randFloat: rand.Float64,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := reg.Hooks.Register(hook.WaitTime); err != nil {
		return nil, fmt.Errorf("register wait-time: %w", err)
	}
	return w, nil
}

// Pause returns the pause the next fetch of record should wait,
// before the hook override is applied.
func (w *Waiter) Pause(record *model.URLRecord) time.Duration {
	pause := w.delay
	if record.TryCount > 0 && w.retryWait > 0 {
		pause += time.Duration(record.TryCount) * w.retryWait
		if w.maxWait > 0 && pause > w.maxWait {
			pause = w.maxWait
		}
	}
	if w.random && pause > 0 {
		pause = time.Duration(float64(pause) * (0.5 + w.randFloat()))
	}
	return pause
}

// Wait blocks for the politeness pause and then for the rate limiter.
// A connected wait-time hook sees the computed pause and a copy of the
// record and may return a replacement duration; a hook error is logged
// and the computed pause stands.
func (w *Waiter) Wait(ctx context.Context, record *model.URLRecord) error {
	pause := w.Pause(record)

	if w.reg.Hooks.IsConnected(hook.WaitTime) {
		value, err := w.reg.Hooks.Call(ctx, hook.WaitTime, pause, record.Clone())
		switch {
		case err != nil:
			w.logger.Warn("wait-time hook failed",
				"url", record.URL,
				"error", err)
		default:
			if d, ok := value.(time.Duration); ok {
				pause = d
			}
		}
	}

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
