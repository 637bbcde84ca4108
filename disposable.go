package multiton

// Notifier is implemented by values that announce their own destruction.
// A Scope is a Notifier, and so is any key that should drop out of a
// Multiton once it is torn down.
//
// OnDestroy subscribes fn to the destruction event and returns a function
// that cancels the subscription. Cancelling more than once is a no-op.
//
// Example:
//
//	type Widget struct{ scope *multiton.Scope }
//
//	func (w *Widget) OnDestroy(fn func()) func() {
//	    return w.scope.OnDestroy(fn)
//	}
type Notifier interface {
	OnDestroy(fn func()) (cancel func())
}

// NotifierFunc adapts an ordinary subscribe function to a Notifier.
// Function values are not comparable, so a NotifierFunc can serve as the
// scope handed to a Factory but never as a Multiton key.
type NotifierFunc func(fn func()) (cancel func())

// OnDestroy calls f(fn).
func (f NotifierFunc) OnDestroy(fn func()) func() {
	return f(fn)
}

// Disposable is implemented by values that release everything they hold
// when disposed. A Multiton is Disposable.
type Disposable interface {
	Dispose()
}

// noopCancel is returned by subscriptions that were never registered.
func noopCancel() {}
