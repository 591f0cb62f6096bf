package uow

import (
	"context"
	"errors"
	"sync"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

type hooksKey struct{}

// AfterCommitHooks collects callbacks that must only fire once the
// surrounding transaction has committed, such as success counters.
type AfterCommitHooks struct {
	mu  sync.Mutex
	fns []func()
}

func (h *AfterCommitHooks) Add(fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

// Run fires the collected callbacks in registration order and drops them.
func (h *AfterCommitHooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ContextWithAfterCommitHooks stores a hook collector in context.
func ContextWithAfterCommitHooks(ctx context.Context, hooks *AfterCommitHooks) context.Context {
	return context.WithValue(ctx, hooksKey{}, hooks)
}

// AfterCommit defers fn until the managing transaction commits. It reports
// false when no collector is present, in which case the caller owns the
// commit and should run fn itself.
func AfterCommit(ctx context.Context, fn func()) bool {
	hooks, ok := ctx.Value(hooksKey{}).(*AfterCommitHooks)
	if !ok || hooks == nil {
		return false
	}
	hooks.Add(fn)
	return true
}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}
