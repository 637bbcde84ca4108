package multiton

import (
	"errors"
	"sync"
)

// hook is a single destruction subscription.
type hook struct {
	fn func()
}

// lifecycleManager holds the destruction hooks of one scope.
type lifecycleManager struct {
	hooks  []*hook
	closed bool
	mu     sync.Mutex
}

// newLifecycleManager creates a new lifecycle manager
func newLifecycleManager() *lifecycleManager {
	return &lifecycleManager{
		hooks: make([]*hook, 0),
	}
}

// track adds fn to the hooks to run on dispose.
// It returns false without tracking once the manager has been disposed.
func (m *lifecycleManager) track(fn func()) (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || fn == nil {
		return noopCancel, false
	}

	h := &hook{fn: fn}
	m.hooks = append(m.hooks, h)

	return func() { m.untrack(h) }, true
}

// untrack removes h if it is still pending.
func (m *lifecycleManager) untrack(h *hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, tracked := range m.hooks {
		if tracked == h {
			m.hooks = append(m.hooks[:i], m.hooks[i+1:]...)
			return
		}
	}
}

// len returns the number of pending hooks.
func (m *lifecycleManager) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hooks)
}

// dispose runs all tracked hooks in reverse order, exactly once.
// Panicking hooks are recovered and reported through onPanic.
func (m *lifecycleManager) dispose(onPanic func(v any) error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	var errs []error

	// Dispose in reverse order (LIFO)
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := runHook(hooks[i].fn, onPanic); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runHook(fn func(), onPanic func(v any) error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = onPanic(v)
		}
	}()

	fn()
	return nil
}
