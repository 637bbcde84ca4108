package multiton

import (
	"maps"
	"sync"
)

// Instance is the field mapping owned by one registered key.
// Fields set on it contribute to every getter created for the same field.
// It is safe for concurrent use.
type Instance[V any] struct {
	mu     sync.RWMutex
	fields map[string]V
}

func newInstance[V any](fields map[string]V) *Instance[V] {
	if fields == nil {
		fields = make(map[string]V)
	}
	return &Instance[V]{fields: fields}
}

// Get returns the value of field and whether it has been set.
func (i *Instance[V]) Get(field string) (V, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.fields[field]
	return v, ok
}

// Value returns the value of field, or the zero value if it is unset.
func (i *Instance[V]) Value(field string) V {
	v, _ := i.Get(field)
	return v
}

// Set assigns field.
func (i *Instance[V]) Set(field string, value V) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fields[field] = value
}

// Delete unsets field.
func (i *Instance[V]) Delete(field string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.fields, field)
}

// Fields returns a copy of all set fields.
func (i *Instance[V]) Fields() map[string]V {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return maps.Clone(i.fields)
}
