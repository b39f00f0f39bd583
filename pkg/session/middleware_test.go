package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniblog/pkg/session"
)

func TestManager_Middleware(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cookie is emitted before the body", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		w := httptest.NewRecorder()
		mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hello"))
		})).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
		assert.Regexp(t, cookieFormat, sessionCookie(t, w).Value)
	})

	t.Run("cookie attributes follow configuration", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t, session.WithConfig(session.Config{
			Secret:            testSecret,
			CookieName:        "sid",
			CookiePath:        "/blog",
			CookieSecure:      true,
			CookieHTTPOnly:    true,
			CookieMaxAge:      600,
			Duration:          time.Hour,
			CookieOnException: true,
		}))

		w := httptest.NewRecorder()
		mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "sid", c.Name)
		assert.Equal(t, "/blog", c.Path)
		assert.True(t, c.Secure)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, 600, c.MaxAge)
	})

	t.Run("invalidated session clears the cookie", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		w := httptest.NewRecorder()
		mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := session.MustFromContext(r.Context())
			require.NoError(t, rec.Invalidate(r.Context()))
		})).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		c := sessionCookie(t, w)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	})

	t.Run("panic still emits cookie by default", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		w := httptest.NewRecorder()
		assert.Panics(t, func() {
			mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			})).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		})

		assert.NotEmpty(t, w.Result().Cookies())
	})

	t.Run("panic suppresses cookie when configured", func(t *testing.T) {
		t.Parallel()
		cfg := session.DefaultConfig()
		cfg.Secret = testSecret
		cfg.CookieOnException = false
		mgr, _ := newManager(t, session.WithConfig(cfg))

		w := httptest.NewRecorder()
		assert.Panics(t, func() {
			mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			})).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		})

		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("record is detached after the request", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		var rec *session.Record
		w := httptest.NewRecorder()
		mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec = session.MustFromContext(r.Context())
			_ = rec.ID(r.Context())
		})).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		// Reads still serve the shadow copy, writes fail.
		assert.NotEmpty(t, rec.ID(ctx))
		assert.ErrorIs(t, rec.Set(ctx, "k", "v"), session.ErrDetached)
	})
}
