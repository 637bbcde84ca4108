package multiton

import (
	"fmt"
	"maps"
	"reflect"
	"sync"
)

// Factory creates the Multiton for one host scope. It registers the
// Multiton's Dispose with scope so the registry is torn down with it.
type Factory[V, R any] func(scope Notifier) *Multiton[V, R]

// Getter returns the reduction of one field over the current instances.
type Getter[R any] func() R

// Build returns a Factory whose multitons reduce instance fields with
// reducer. newFields, when non-nil, seeds the fields of every new instance;
// otherwise instances start empty.
//
// Example:
//
//	factory := multiton.Build(multiton.Sum[int](), nil)
//	counts := factory(scope)
//
//	total := counts.Getter("count")
//	counts.Instance(a).Set("count", 2)
//	counts.Instance(b).Set("count", 3)
//	total() // 5
func Build[V, R any](reducer Reducer[V, R], newFields func() map[string]V, opts ...Option) Factory[V, R] {
	o := newOptions(opts)

	return func(scope Notifier) *Multiton[V, R] {
		m := &Multiton[V, R]{
			reducer:   reducer,
			newFields: newFields,
			onCreate:  o.onCreate,
			onRemove:  o.onRemove,
		}

		if scope != nil {
			scope.OnDestroy(m.Dispose)
		}

		return m
	}
}

var _ Disposable = (*Multiton[any, any])(nil)

// Multiton is a registry of keyed instances whose fields are aggregated by
// getters. Keys are compared with ==, so they must be comparable.
// It is safe for concurrent use.
type Multiton[V, R any] struct {
	reducer   Reducer[V, R]
	newFields func() map[string]V
	onCreate  func(key any)
	onRemove  func(key any)

	mu  sync.Mutex
	reg registry[V, R]
}

// Getter returns a function that reduces field over the instances
// registered at the time of each call.
func (m *Multiton[V, R]) Getter(field string) Getter[R] {
	return func() R {
		return m.reducer.Reduce(m.values(field))
	}
}

// Reduce is shorthand for m.Getter(field)().
func (m *Multiton[V, R]) Reduce(field string) R {
	return m.reducer.Reduce(m.values(field))
}

func (m *Multiton[V, R]) values(field string) []V {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := make([]V, len(m.reg.instances))
	for i, instance := range m.reg.instances {
		values[i] = instance.Value(field)
	}
	return values
}

// Instance returns the instance registered for key, creating it if key has
// not been seen. If key is a Notifier, its destruction removes the instance.
//
// Instance panics with a KeyError if key is not comparable or is not equal
// to itself, such as a NaN float.
func (m *Multiton[V, R]) Instance(key any) *Instance[V] {
	if err := checkKey(key); err != nil {
		panic(err)
	}

	if instance, ok := m.lookup(key); ok {
		return instance
	}

	// newFields runs without the lock, so a concurrent caller may have
	// registered key in the meantime.
	var fields map[string]V
	if m.newFields != nil {
		fields = maps.Clone(m.newFields())
	}

	m.mu.Lock()
	if index := m.reg.indexOf(key); index >= 0 {
		instance := m.reg.instances[index]
		m.mu.Unlock()
		return instance
	}

	instance := newInstance(fields)
	entry := &removal[V, R]{multiton: m, key: key}
	m.reg.add(key, instance, entry)
	m.mu.Unlock()

	if notifier, ok := key.(Notifier); ok {
		entry.subscribed(notifier.OnDestroy(entry.remove))
	}

	if m.onCreate != nil {
		m.onCreate(key)
	}

	return instance
}

func (m *Multiton[V, R]) lookup(key any) (*Instance[V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index := m.reg.indexOf(key); index >= 0 {
		return m.reg.instances[index], true
	}
	return nil, false
}

// Remove removes the instance registered for key and reports whether there
// was one.
func (m *Multiton[V, R]) Remove(key any) bool {
	if checkKey(key) != nil {
		return false
	}

	m.mu.Lock()
	index := m.reg.indexOf(key)
	if index < 0 {
		m.mu.Unlock()
		return false
	}
	entry := m.reg.removeFns[index]
	m.mu.Unlock()

	entry.remove()
	return true
}

// Dispose removes every instance, most recently registered first.
// The Multiton stays usable afterwards.
func (m *Multiton[V, R]) Dispose() {
	for {
		m.mu.Lock()
		entry, ok := m.reg.last()
		m.mu.Unlock()

		if !ok {
			return
		}

		entry.remove()
	}
}

// Len returns the number of registered instances.
func (m *Multiton[V, R]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.len()
}

// Keys returns the registered keys in registration order.
func (m *Multiton[V, R]) Keys() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.reg.keys...)
}

// removal owns the removal callback of one registry entry. The callback
// acts at most once, so subscriptions outliving their entry are inert.
type removal[V, R any] struct {
	multiton *Multiton[V, R]
	key      any

	// guarded by multiton.mu
	done   bool
	cancel func()
}

// subscribed records the cancel function of the key's destruction
// subscription, cancelling it right away if the entry is already gone.
func (e *removal[V, R]) subscribed(cancel func()) {
	if cancel == nil {
		return
	}

	m := e.multiton
	m.mu.Lock()
	done := e.done
	if !done {
		e.cancel = cancel
	}
	m.mu.Unlock()

	if done {
		cancel()
	}
}

func (e *removal[V, R]) remove() {
	m := e.multiton

	m.mu.Lock()
	if e.done {
		m.mu.Unlock()
		return
	}
	e.done = true
	m.reg.remove(e)
	cancel := e.cancel
	e.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if m.onRemove != nil {
		m.onRemove(e.key)
	}
}

func checkKey(key any) error {
	if key == nil {
		return nil
	}

	if t := reflect.TypeOf(key); !t.Comparable() {
		return KeyError{Key: key, Cause: fmt.Errorf("%w: %s", ErrKeyNotComparable, t)}
	}

	// A key unequal to itself could never be found again.
	if key != key {
		return KeyError{Key: key, Cause: ErrKeyNotSelfEqual}
	}

	return nil
}
