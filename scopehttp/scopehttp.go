// Package scopehttp ties multiton scopes to HTTP requests.
//
// Middleware opens a child scope for every request and closes it once the
// handler returns. Multitons created for the request are disposed and
// instances keyed by the request scope drop out of longer-lived multitons.
//
// Example usage:
//
//	root := multiton.NewScope(context.Background())
//	defer root.Close()
//
//	r := chi.NewRouter()
//	r.Use(scopehttp.Middleware(root))
//
//	r.Get("/status", scopehttp.Handle(func(scope *multiton.Scope, w http.ResponseWriter, r *http.Request) {
//	    busy.Instance(scope).Set("busy", true)
//	}))
package scopehttp

import (
	"log/slog"
	"net/http"

	"github.com/junioryono/multiton"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler writes the response when the request scope cannot be
	// opened or a setup hook fails. Defaults to 500 Internal Server Error.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// CloseErrorHandler receives errors from closing the request scope.
	// Defaults to logging with slog.
	CloseErrorHandler func(error)

	// Setup hooks run in order on every new request scope.
	Setup []func(*multiton.Scope, *http.Request) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler replaces the handler for scope setup failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) { c.ErrorHandler = h }
}

// WithCloseErrorHandler replaces the handler for scope close failures.
func WithCloseErrorHandler(h func(error)) Option {
	return func(c *Config) { c.CloseErrorHandler = h }
}

// WithSetup appends a hook run on each request scope before the handler,
// typically to register request instances.
func WithSetup(fn func(*multiton.Scope, *http.Request) error) Option {
	return func(c *Config) { c.Setup = append(c.Setup, fn) }
}

func internalError(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: internalError,
		CloseErrorHandler: func(err error) {
			slog.Error("failed to close request scope", "error", err)
		},
	}
}

// Middleware opens a child of parent for each request and stores it in the
// request context, where multiton.FromContext finds it.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(scopehttp.Middleware(root))
func Middleware(parent *multiton.Scope, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := createScope(parent, r)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}

			defer func() {
				if err := scope.Close(); err != nil {
					cfg.CloseErrorHandler(err)
				}
			}()

			r = r.WithContext(scope.Context())

			for _, setup := range cfg.Setup {
				if err := setup(scope, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func createScope(parent *multiton.Scope, r *http.Request) (scope *multiton.Scope, err error) {
	if parent == nil || parent.IsDisposed() {
		return nil, multiton.ErrScopeDisposed
	}

	// The parent may close between the check and Child.
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(error); ok {
				scope, err = nil, e
				return
			}
			panic(v)
		}
	}()

	return parent.Child(r.Context()), nil
}

// Handle adapts a handler that needs the request scope, typically to key
// multiton instances by it. Requests without a scope get onMissing, or a
// logged 500 when onMissing is nil.
//
// Example:
//
//	r.Post("/upload", scopehttp.Handle(func(scope *multiton.Scope, w http.ResponseWriter, r *http.Request) {
//	    uploads.Instance(scope).Set("active", 1)
//	}))
func Handle(fn func(*multiton.Scope, http.ResponseWriter, *http.Request), onMissing ...func(http.ResponseWriter, *http.Request, error)) http.HandlerFunc {
	missing := func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Error("no request scope", "path", r.URL.Path, "error", err)
		internalError(w, r, err)
	}
	if len(onMissing) > 0 && onMissing[0] != nil {
		missing = onMissing[0]
	}

	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := multiton.FromContext(r.Context())
		if err != nil {
			missing(w, r, err)
			return
		}

		fn(scope, w, r)
	}
}
