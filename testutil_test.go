package multiton

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Shared Test Types
// ============================================================================

// TKey is a plain comparable key.
type TKey struct {
	Name string
}

// TWidget is a key that owns a scope and announces its destruction.
type TWidget struct {
	Name  string
	scope *Scope
}

func newTWidget(t *testing.T, parent *Scope, name string) *TWidget {
	t.Helper()

	w := &TWidget{Name: name, scope: parent.Child(context.Background())}
	t.Cleanup(func() {
		require.NoError(t, w.scope.Close())
	})
	return w
}

func (w *TWidget) OnDestroy(fn func()) func() {
	return w.scope.OnDestroy(fn)
}

func (w *TWidget) Destroy() error {
	return w.scope.Close()
}

// TEmitter is a hand-driven Notifier that records its subscriptions.
type TEmitter struct {
	hooks     []func()
	cancelled int
}

func (e *TEmitter) OnDestroy(fn func()) func() {
	e.hooks = append(e.hooks, fn)
	return func() { e.cancelled++ }
}

func (e *TEmitter) Emit() {
	for _, fn := range e.hooks {
		fn()
	}
}

func newTestScope(t *testing.T) *Scope {
	t.Helper()

	scope := NewScope(context.Background())
	t.Cleanup(func() {
		require.NoError(t, scope.Close())
	})
	return scope
}

func sumNonNil(acc any, value any, _ int, _ []any) any {
	total, _ := acc.(int)
	if v, ok := value.(int); ok {
		total += v
	}
	return total
}
