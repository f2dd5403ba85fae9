package urlfilter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skitterhq/skitter/internal/hook"
	"github.com/skitterhq/skitter/internal/model"
)

// Rule pairs a filter with the priority assigned to URLs it matches.
type Rule struct {
	// Filter selects the URLs this rule covers.
	Filter Filter
	// Priority is the frontier priority; higher checks out first.
	Priority int
}

// Prioritiser assigns frontier priorities to discovered URLs.
//
// Precedence is strict: a connected get-priority hook returning an
// integer is authoritative and the rule chain is skipped entirely; a
// disconnected hook, or one returning nil, falls through to the first
// matching rule; no match means priority zero.
//
// Design decision: The hook receives clones of both arguments. Callbacks
// are free to scribble on what they are handed; nothing they do may leak
// into frontier state.
type Prioritiser struct {
	reg    *hook.Registry
	rules  []Rule
	logger *slog.Logger
}

// PrioritiserOption configures a Prioritiser.
type PrioritiserOption func(*Prioritiser)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PrioritiserOption {
	return func(p *Prioritiser) { p.logger = logger }
}

// NewPrioritiser returns a Prioritiser with the given rule chain,
// consulted in order. It registers the get-priority hook on reg.
func NewPrioritiser(reg *hook.Registry, rules []Rule, opts ...PrioritiserOption) (*Prioritiser, error) {
	p := &Prioritiser{
		reg:    reg,
		rules:  rules,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := reg.Hooks.Register(hook.GetPriority); err != nil {
		return nil, fmt.Errorf("register get-priority: %w", err)
	}
	return p, nil
}

// Priority returns the frontier priority for the URL.
func (p *Prioritiser) Priority(ctx context.Context, info *model.URLInfo, record *model.URLRecord) int {
	if p.reg.Hooks.IsConnected(hook.GetPriority) {
		value, err := p.reg.Hooks.Call(ctx, hook.GetPriority, info.Clone(), record.Clone())
		switch {
		case err != nil:
			p.logger.Warn("get-priority hook failed",
				"url", info.Raw,
				"error", err)
		default:
			if priority, ok := asInt(value); ok {
				return priority
			}
		}
	}

	for _, rule := range p.rules {
		if rule.Filter.Test(info, record) {
			return rule.Priority
		}
	}
	return 0
}

// asInt accepts the integer shapes a dynamically typed callback may
// return. A nil value means "no opinion".
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
