package scopehttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/junioryono/multiton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot(t *testing.T) *multiton.Scope {
	t.Helper()

	root := multiton.NewScope(context.Background())
	t.Cleanup(func() {
		require.NoError(t, root.Close())
	})
	return root
}

func TestMiddleware(t *testing.T) {
	t.Run("creates scope and attaches to context", func(t *testing.T) {
		root := newRoot(t)

		var requestScope *multiton.Scope

		handler := Middleware(root)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := multiton.FromContext(r.Context())
			assert.NoError(t, err)
			requestScope = scope

			assert.False(t, scope.IsDisposed())
			assert.Same(t, root, scope.Parent())

			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, requestScope)
		assert.True(t, requestScope.IsDisposed())
	})

	t.Run("request instances are removed when the request ends", func(t *testing.T) {
		root := newRoot(t)
		busy := multiton.Build(multiton.Some[bool](nil), nil)(root)
		isBusy := busy.Getter("busy")

		r := chi.NewRouter()
		r.Use(Middleware(root))
		r.Get("/work", Handle(func(scope *multiton.Scope, w http.ResponseWriter, r *http.Request) {
			busy.Instance(scope).Set("busy", true)
			assert.True(t, isBusy())
			w.WriteHeader(http.StatusAccepted)
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/work", nil))

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.False(t, isBusy())
		assert.Zero(t, busy.Len())
	})

	t.Run("request-scoped multitons are disposed with the request", func(t *testing.T) {
		root := newRoot(t)
		factory := multiton.Build(multiton.Sum[int](), nil)

		var perRequest *multiton.Multiton[int, int]

		r := chi.NewRouter()
		r.Use(Middleware(root))
		r.Get("/sum", Handle(func(scope *multiton.Scope, w http.ResponseWriter, r *http.Request) {
			perRequest = factory(scope)
			perRequest.Instance("a").Set("n", 1)
			perRequest.Instance("b").Set("n", 2)
			io.WriteString(w, "ok")
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sum", nil))

		assert.Equal(t, "ok", rec.Body.String())
		require.NotNil(t, perRequest)
		assert.Zero(t, perRequest.Len())
	})

	t.Run("calls error handler when parent is closed", func(t *testing.T) {
		errorHandlerCalled := false

		root := multiton.NewScope(context.Background())
		require.NoError(t, root.Close())

		handler := Middleware(root,
			WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				errorHandlerCalled = true
				assert.ErrorIs(t, err, multiton.ErrScopeDisposed)
				w.WriteHeader(http.StatusServiceUnavailable)
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("runs setup hooks in order", func(t *testing.T) {
		var mwOrder []int

		handler := Middleware(newRoot(t),
			WithSetup(func(scope *multiton.Scope, r *http.Request) error {
				mwOrder = append(mwOrder, 1)
				return nil
			}),
			WithSetup(func(scope *multiton.Scope, r *http.Request) error {
				mwOrder = append(mwOrder, 2)
				return nil
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, []int{1, 2}, mwOrder)
	})

	t.Run("calls error handler when setup fails", func(t *testing.T) {
		errorHandlerCalled := false
		expectedErr := errors.New("setup failed")

		handler := Middleware(newRoot(t),
			WithSetup(func(scope *multiton.Scope, r *http.Request) error {
				return expectedErr
			}),
			WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				errorHandlerCalled = true
				assert.Equal(t, expectedErr, err)
				w.WriteHeader(http.StatusBadRequest)
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reports close errors", func(t *testing.T) {
		var closeErr error

		handler := Middleware(newRoot(t),
			WithSetup(func(scope *multiton.Scope, r *http.Request) error {
				scope.OnDestroy(func() { panic("teardown failed") })
				return nil
			}),
			WithCloseErrorHandler(func(err error) {
				closeErr = err
			}),
		)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		var hookErr multiton.HookPanicError
		require.ErrorAs(t, closeErr, &hookErr)
		assert.Equal(t, "teardown failed", hookErr.Panic)
	})
}

func TestHandle(t *testing.T) {
	t.Run("calls missing-scope handler when no scope", func(t *testing.T) {
		missingCalled := false

		handler := Handle(func(*multiton.Scope, http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run without a scope")
		}, func(w http.ResponseWriter, r *http.Request, err error) {
			missingCalled = true
			assert.ErrorIs(t, err, multiton.ErrScopeNotFound)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/value", nil))

		assert.True(t, missingCalled)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("defaults to 500 when no scope", func(t *testing.T) {
		handler := Handle(func(*multiton.Scope, http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run without a scope")
		})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/value", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("panics propagate after the scope closes", func(t *testing.T) {
		var requestScope *multiton.Scope

		handler := Middleware(newRoot(t))(Handle(func(scope *multiton.Scope, _ http.ResponseWriter, _ *http.Request) {
			requestScope = scope
			panic("test panic")
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/panic", nil)

		assert.PanicsWithValue(t, "test panic", func() {
			handler.ServeHTTP(rec, req)
		})
		require.NotNil(t, requestScope)
		assert.True(t, requestScope.IsDisposed())
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	cfg.ErrorHandler(rec, req, errors.New("test error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, cfg.Setup)
}
