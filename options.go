package multiton

// Option configures a Multiton built by Build.
type Option interface {
	apply(*options)
}

// options holds multiton configuration.
type options struct {
	onCreate func(key any)
	onRemove func(key any)
}

// optionFunc adapts a function to Option.
type optionFunc func(*options)

func (f optionFunc) apply(opts *options) {
	f(opts)
}

// WithOnCreate sets a callback invoked after an instance is created for a
// previously unseen key.
func WithOnCreate(fn func(key any)) Option {
	return optionFunc(func(opts *options) {
		opts.onCreate = fn
	})
}

// WithOnRemove sets a callback invoked after the instance for key has been
// removed, whether explicitly, by the key's destruction, or by Dispose.
func WithOnRemove(fn func(key any)) Option {
	return optionFunc(func(opts *options) {
		opts.onRemove = fn
	})
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}
	return o
}
