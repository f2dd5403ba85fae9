package hook

import (
	"context"
	"errors"
	"testing"
)

func TestEventDispatcherRegister(t *testing.T) {
	t.Parallel()

	t.Run("registers an event name", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(QueuedURL); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		if !d.IsRegistered(QueuedURL) {
			t.Error("IsRegistered() = false, want true")
		}
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(QueuedURL); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		if err := d.Register(QueuedURL); !errors.Is(err, ErrAlreadyRegistered) {
			t.Errorf("Register() error = %v, want ErrAlreadyRegistered", err)
		}
	})

	t.Run("rejects a hook-kind name", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(AcceptURL); !errors.Is(err, ErrWrongKind) {
			t.Errorf("Register() error = %v, want ErrWrongKind", err)
		}
	})
}

func TestEventDispatcherNotify(t *testing.T) {
	t.Parallel()

	t.Run("no listeners is a no-op", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(ResolveResult); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		if err := d.Notify(context.Background(), ResolveResult, "example.com"); err != nil {
			t.Errorf("Notify() error = %v, want nil", err)
		}
	})

	t.Run("invokes listeners in attachment order", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(PipelineBegin); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		var order []string
		for _, tag := range []string{"first", "second", "third"} {
			tag := tag
			_, err := d.AddListener(PipelineBegin, func(_ context.Context, _ ...any) error {
				order = append(order, tag)
				return nil
			})
			if err != nil {
				t.Fatalf("AddListener() error = %v, want nil", err)
			}
		}

		if err := d.Notify(context.Background(), PipelineBegin, "crawl"); err != nil {
			t.Fatalf("Notify() error = %v, want nil", err)
		}
		want := []string{"first", "second", "third"}
		if len(order) != len(want) {
			t.Fatalf("listener invocations = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("invocation %d = %q, want %q", i, order[i], want[i])
			}
		}
	})

	t.Run("listener failure stops the notification", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(GetURLs); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		listenerErr := errors.New("listener failed")
		if _, err := d.AddListener(GetURLs, func(_ context.Context, _ ...any) error {
			return listenerErr
		}); err != nil {
			t.Fatalf("AddListener() error = %v, want nil", err)
		}
		tailCalled := false
		if _, err := d.AddListener(GetURLs, func(_ context.Context, _ ...any) error {
			tailCalled = true
			return nil
		}); err != nil {
			t.Fatalf("AddListener() error = %v, want nil", err)
		}

		if err := d.Notify(context.Background(), GetURLs); !errors.Is(err, listenerErr) {
			t.Errorf("Notify() error = %v, want the listener's error", err)
		}
		if tailCalled {
			t.Error("listener after the failing one was invoked")
		}
	})

	t.Run("unregistered name errors", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Notify(context.Background(), DequeuedURL); !errors.Is(err, ErrNotRegistered) {
			t.Errorf("Notify() error = %v, want ErrNotRegistered", err)
		}
	})
}

func TestEventDispatcherRemoveListener(t *testing.T) {
	t.Parallel()

	t.Run("removed listener is not notified", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(FinishingStatistics); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		called := false
		id, err := d.AddListener(FinishingStatistics, func(_ context.Context, _ ...any) error {
			called = true
			return nil
		})
		if err != nil {
			t.Fatalf("AddListener() error = %v, want nil", err)
		}
		if err := d.RemoveListener(FinishingStatistics, id); err != nil {
			t.Fatalf("RemoveListener() error = %v, want nil", err)
		}

		if err := d.Notify(context.Background(), FinishingStatistics); err != nil {
			t.Fatalf("Notify() error = %v, want nil", err)
		}
		if called {
			t.Error("removed listener was invoked")
		}
		if got := d.ListenerCount(FinishingStatistics); got != 0 {
			t.Errorf("ListenerCount() = %d, want 0", got)
		}
	})

	t.Run("unknown id errors", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(PipelineEnd); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		if err := d.RemoveListener(PipelineEnd, 42); !errors.Is(err, ErrNoListener) {
			t.Errorf("RemoveListener() error = %v, want ErrNoListener", err)
		}
	})

	t.Run("nil listener rejected", func(t *testing.T) {
		t.Parallel()

		d := NewEventDispatcher()
		if err := d.Register(PipelineEnd); err != nil {
			t.Fatalf("Register() error = %v, want nil", err)
		}
		if _, err := d.AddListener(PipelineEnd, nil); !errors.Is(err, ErrNilCallback) {
			t.Errorf("AddListener() error = %v, want ErrNilCallback", err)
		}
	})
}
