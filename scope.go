package multiton

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

var _ Notifier = (*Scope)(nil)

// Scope is a host scope that announces its destruction.
// A Factory registers its Multiton's Dispose with the scope it is invoked
// with, so closing the scope tears the whole registry down.
//
// In web applications a scope is typically created for each HTTP request
// as a child of a long-lived root scope.
//
// Example:
//
//	root := multiton.NewScope(ctx)
//	defer root.Close()
//
//	scope := root.Child(r.Context())
//	defer scope.Close()
type Scope struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
	parent *Scope

	disposed  atomic.Bool
	lifecycle *lifecycleManager
}

// scopeContextKey is the context key under which a Scope is stored.
type scopeContextKey struct{}

// NewScope creates a root scope. The scope closes itself when ctx is done.
func NewScope(ctx context.Context) *Scope {
	return newScope(nil, ctx)
}

func newScope(parent *Scope, ctx context.Context) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Scope{
		id:        uuid.NewString(),
		parent:    parent,
		lifecycle: newLifecycleManager(),
	}

	s.ctx, s.cancel = context.WithCancel(ContextWithScope(ctx, s))
	s.stop = context.AfterFunc(ctx, func() { _ = s.Close() })

	return s
}

// ContextWithScope returns a copy of ctx carrying scope.
func ContextWithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// FromContext returns the scope stored in ctx.
func FromContext(ctx context.Context) (*Scope, error) {
	if ctx == nil {
		return nil, ErrScopeNotFound
	}

	scope, ok := ctx.Value(scopeContextKey{}).(*Scope)
	if !ok || scope == nil {
		return nil, ErrScopeNotFound
	}

	return scope, nil
}

// ID returns the unique ID of this scope.
func (s *Scope) ID() string {
	return s.id
}

// Context returns the context associated with this scope.
// It is cancelled once the scope has closed.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsRoot returns true if this scope has no parent.
func (s *Scope) IsRoot() bool {
	return s.parent == nil
}

// IsDisposed reports whether the scope has been closed.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// Child creates a scope that is closed together with s.
// A nil ctx inherits the context of s.
//
// Child panics with ErrScopeDisposed if s has been closed.
func (s *Scope) Child(ctx context.Context) *Scope {
	if s.IsDisposed() {
		panic(ErrScopeDisposed)
	}

	if ctx == nil {
		ctx = s.ctx
	}

	child := newScope(s, ctx)

	// Closing the child first must not leave a hook behind on the parent.
	detach, ok := s.lifecycle.track(func() { _ = child.Close() })
	if !ok {
		_ = child.Close()
		panic(ErrScopeDisposed)
	}
	child.lifecycle.track(detach)

	return child
}

// OnDestroy implements Notifier. Hooks run in reverse order of subscription
// when the scope closes. Subscribing to a closed scope does nothing.
func (s *Scope) OnDestroy(fn func()) func() {
	cancel, _ := s.lifecycle.track(fn)
	return cancel
}

// Close runs all destruction hooks and cancels the scope context.
// Closing an already closed scope is a no-op.
func (s *Scope) Close() error {
	if !s.disposed.CompareAndSwap(false, true) {
		return nil
	}

	s.stop()

	err := s.lifecycle.dispose(func(v any) error {
		return HookPanicError{ScopeID: s.id, Panic: v}
	})

	s.cancel()

	return err
}
