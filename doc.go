// Package multiton builds keyed, scope-bound registries whose instance
// fields are aggregated on demand.
//
// # Overview
//
// A multiton is a registry of several keyed singleton-like instances.
// Each key owns one Instance, a mapping from field name to value. Getters
// reduce one field across every live instance each time they are called:
//   - Fold reducers combine values left-to-right from a zero accumulator
//   - Some and Every reducers test the whole sequence at once
//   - Instances drop out when their key announces its destruction
//   - The whole registry is disposed when its host scope closes
//
// # Basic Usage
//
// Build a factory from a reducer, invoke it with a host scope, and
// contribute values through instances:
//
//	busy := multiton.Build(multiton.Some[bool](nil), nil)
//
//	root := multiton.NewScope(context.Background())
//	defer root.Close()
//
//	m := busy(root)
//	isBusy := m.Getter("busy")
//
//	m.Instance(uploader).Set("busy", true)
//	isBusy() // true
//
// # Keys
//
// Any comparable value can be a key. Keys implementing Notifier, such as a
// child Scope, are removed automatically when they are destroyed:
//
//	view := root.Child(nil)
//	m.Instance(view).Set("busy", true)
//	view.Close()
//	isBusy() // false
//
// # Reduction Modes
//
// Over an empty registry a Fold yields the zero value of its result type,
// Every yields true and Some yields false.
//
// # Dependency Injection
//
// Provide and ProvideScope register a factory and its scope with a
// go.uber.org/dig container, so consumers receive the multiton by type:
//
//	c := dig.New()
//	_ = multiton.ProvideScope(c, root)
//	_ = multiton.Provide(c, busy)
//	_ = c.Invoke(func(m *multiton.Multiton[bool, bool]) { ... })
//
// # Thread Safety
//
// Multiton, Instance and Scope can be used from multiple goroutines.
// Removal callbacks and destruction hooks run without holding any lock.
package multiton
