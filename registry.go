package multiton

import "slices"

// registry keeps three parallel sequences in lock-step by index:
// keys[i] owns instances[i] and is removed by removeFns[i].
// Callers hold the Multiton lock.
type registry[V, R any] struct {
	keys      []any
	instances []*Instance[V]
	removeFns []*removal[V, R]
}

func (r *registry[V, R]) indexOf(key any) int {
	for i, k := range r.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// add appends a new entry and returns its index, which is the length
// before the append.
func (r *registry[V, R]) add(key any, instance *Instance[V], remove *removal[V, R]) int {
	index := len(r.keys)
	r.keys = append(r.keys, key)
	r.instances = append(r.instances, instance)
	r.removeFns = append(r.removeFns, remove)
	return index
}

// remove splices the entry owned by e out of all three sequences. Entries
// are found by their removal callback, never by re-comparing keys.
func (r *registry[V, R]) remove(e *removal[V, R]) bool {
	index := slices.Index(r.removeFns, e)
	if index < 0 {
		return false
	}

	r.keys = slices.Delete(r.keys, index, index+1)
	r.instances = slices.Delete(r.instances, index, index+1)
	r.removeFns = slices.Delete(r.removeFns, index, index+1)
	return true
}

// last returns the removal callback of the most recently added entry.
func (r *registry[V, R]) last() (*removal[V, R], bool) {
	if len(r.removeFns) == 0 {
		return nil, false
	}
	return r.removeFns[len(r.removeFns)-1], true
}

func (r *registry[V, R]) len() int {
	return len(r.keys)
}
