package multiton

import (
	"go.uber.org/dig"
)

// Provider is the subset of *dig.Container and *dig.Scope used to register
// constructors.
type Provider interface {
	Provide(constructor interface{}, opts ...dig.ProvideOption) error
}

var (
	_ Provider = (*dig.Container)(nil)
	_ Provider = (*dig.Scope)(nil)
)

// ProvideScope makes scope available to constructors that depend on a
// Notifier, such as the ones registered by Provide.
func ProvideScope(p Provider, scope Notifier) error {
	return p.Provide(func() Notifier { return scope })
}

// Provide registers factory as the constructor of *Multiton[V, R]. The
// container injects the Notifier provided with ProvideScope and the
// resulting multiton lives as long as that scope.
//
// Example:
//
//	c := dig.New()
//	_ = multiton.ProvideScope(c, root)
//	_ = multiton.Provide(c, multiton.Build(multiton.Every[bool](nil), nil), dig.Name("ready"))
func Provide[V, R any](p Provider, factory Factory[V, R], opts ...dig.ProvideOption) error {
	return p.Provide(func(scope Notifier) *Multiton[V, R] {
		return factory(scope)
	}, opts...)
}
