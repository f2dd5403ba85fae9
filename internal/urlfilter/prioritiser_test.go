package urlfilter

import (
	"context"
	"errors"
	"testing"

	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
)

// countingFilter records how often Test runs so tests can assert the
// rule chain was or was not consulted.
type countingFilter struct {
	calls  int
	result bool
}

func (f *countingFilter) Name() string { return "counting" }

func (f *countingFilter) Test(_ *model.URLInfo, _ *model.URLRecord) bool {
	f.calls++
	return f.result
}

func TestPrioritiserHookIsAuthoritative(t *testing.T) {
	t.Parallel()

	reg := hook.NewRegistry()
	filter := &countingFilter{result: true}
	p, err := NewPrioritiser(reg, []Rule{{Filter: filter, Priority: 7}})
	if err != nil {
		t.Fatalf("NewPrioritiser() error = %v, want nil", err)
	}

	err = reg.Hooks.Connect(hook.GetPriority, func(_ context.Context, _ ...any) (any, error) {
		return 5, nil
	})
	if err != nil {
		t.Fatalf("Connect() error = %v, want nil", err)
	}

	got := p.Priority(context.Background(), mustParse(t, "http://example.com/"), &model.URLRecord{})
	if got != 5 {
		t.Errorf("Priority() = %d, want 5 from the hook", got)
	}
	if filter.calls != 0 {
		t.Errorf("rule filter ran %d times, want 0 when the hook decides", filter.calls)
	}
}

func TestPrioritiserFallsThroughToRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		connect hook.Func
	}{
		{
			name:    "hook disconnected",
			connect: nil,
		},
		{
			name: "hook returns nil",
			connect: func(_ context.Context, _ ...any) (any, error) {
				return nil, nil
			},
		},
		{
			name: "hook errors",
			connect: func(_ context.Context, _ ...any) (any, error) {
				return nil, errors.New("callback broke")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := hook.NewRegistry()
			rules := []Rule{
				{Filter: &countingFilter{result: false}, Priority: 9},
				{Filter: &countingFilter{result: true}, Priority: 7},
			}
			p, err := NewPrioritiser(reg, rules)
			if err != nil {
				t.Fatalf("NewPrioritiser() error = %v, want nil", err)
			}
			if tt.connect != nil {
				if err := reg.Hooks.Connect(hook.GetPriority, tt.connect); err != nil {
					t.Fatalf("Connect() error = %v, want nil", err)
				}
			}

			got := p.Priority(context.Background(), mustParse(t, "http://example.com/"), &model.URLRecord{})
			if got != 7 {
				t.Errorf("Priority() = %d, want 7 from the first matching rule", got)
			}
		})
	}
}

func TestPrioritiserDefaultsToZero(t *testing.T) {
	t.Parallel()

	reg := hook.NewRegistry()
	p, err := NewPrioritiser(reg, []Rule{{Filter: &countingFilter{result: false}, Priority: 3}})
	if err != nil {
		t.Fatalf("NewPrioritiser() error = %v, want nil", err)
	}

	got := p.Priority(context.Background(), mustParse(t, "http://example.com/"), &model.URLRecord{})
	if got != 0 {
		t.Errorf("Priority() = %d, want 0 with no matching rule", got)
	}
}

func TestPrioritiserHookReceivesCopies(t *testing.T) {
	t.Parallel()

	reg := hook.NewRegistry()
	p, err := NewPrioritiser(reg, nil)
	if err != nil {
		t.Fatalf("NewPrioritiser() error = %v, want nil", err)
	}

	err = reg.Hooks.Connect(hook.GetPriority, func(_ context.Context, args ...any) (any, error) {
		if len(args) != 2 {
			t.Fatalf("hook received %d args, want 2", len(args))
		}
		args[0].(*model.URLInfo).Host = "mangled.invalid"
		args[1].(*model.URLRecord).Status = model.StatusError
		return 1, nil
	})
	if err != nil {
		t.Fatalf("Connect() error = %v, want nil", err)
	}

	info := mustParse(t, "http://example.com/")
	record := &model.URLRecord{Status: model.StatusTodo}
	if got := p.Priority(context.Background(), info, record); got != 1 {
		t.Fatalf("Priority() = %d, want 1", got)
	}

	if info.Host != "example.com" {
		t.Errorf("info.Host = %q after hook, want %q untouched", info.Host, "example.com")
	}
	if record.Status != model.StatusTodo {
		t.Errorf("record.Status = %v after hook, want %v untouched", record.Status, model.StatusTodo)
	}
}

func TestPrioritiserAcceptsWideIntegers(t *testing.T) {
	t.Parallel()

	reg := hook.NewRegistry()
	p, err := NewPrioritiser(reg, nil)
	if err != nil {
		t.Fatalf("NewPrioritiser() error = %v, want nil", err)
	}

	err = reg.Hooks.Connect(hook.GetPriority, func(_ context.Context, _ ...any) (any, error) {
		return int64(12), nil
	})
	if err != nil {
		t.Fatalf("Connect() error = %v, want nil", err)
	}

	if got := p.Priority(context.Background(), mustParse(t, "http://example.com/"), &model.URLRecord{}); got != 12 {
		t.Errorf("Priority() = %d, want 12 from an int64 return", got)
	}
}
