package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniblog/modules/auth"
)

func TestHTTPVerifier(t *testing.T) {
	t.Parallel()

	t.Run("accepts a vouched assertion", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "the-assertion", r.PostFormValue("assertion"))
			assert.Equal(t, "https://blog.example.com", r.PostFormValue("audience"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"okay","email":"admin@example.com"}`))
		}))
		defer srv.Close()

		v := auth.NewHTTPVerifier(srv.URL, "https://blog.example.com")
		email, err := v.Verify(context.Background(), "the-assertion")
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", email)
	})

	t.Run("rejected assertion carries the reason", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"failure","reason":"assertion has expired"}`))
		}))
		defer srv.Close()

		v := auth.NewHTTPVerifier(srv.URL, "https://blog.example.com")
		_, err := v.Verify(context.Background(), "stale")
		require.ErrorIs(t, err, auth.ErrAssertionRejected)
		assert.Contains(t, err.Error(), "assertion has expired")
	})

	t.Run("okay without email is rejected", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"okay"}`))
		}))
		defer srv.Close()

		v := auth.NewHTTPVerifier(srv.URL, "https://blog.example.com")
		_, err := v.Verify(context.Background(), "odd")
		require.ErrorIs(t, err, auth.ErrAssertionRejected)
	})

	t.Run("non-200 answer is unavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		v := auth.NewHTTPVerifier(srv.URL, "https://blog.example.com")
		_, err := v.Verify(context.Background(), "any")
		require.ErrorIs(t, err, auth.ErrVerifierUnavailable)
	})

	t.Run("unreachable endpoint is unavailable", func(t *testing.T) {
		t.Parallel()

		v := auth.NewHTTPVerifier("http://127.0.0.1:1", "https://blog.example.com")
		_, err := v.Verify(context.Background(), "any")
		require.ErrorIs(t, err, auth.ErrVerifierUnavailable)
	})

	t.Run("garbage body is unavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		v := auth.NewHTTPVerifier(srv.URL, "https://blog.example.com")
		_, err := v.Verify(context.Background(), "any")
		require.ErrorIs(t, err, auth.ErrVerifierUnavailable)
	})
}
