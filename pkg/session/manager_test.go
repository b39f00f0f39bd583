package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniblog/pkg/session"
)

const testSecret = "keep-it-secret-keep-it-safe"

var cookieFormat = regexp.MustCompile(`^[0-9a-f]{128}:[0-9a-f]{40}:\d+$`)

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	mgr, err := session.New(store, append([]session.Option{
		session.WithSecret(testSecret),
		session.WithDuration(time.Hour),
	}, opts...)...)
	require.NoError(t, err)
	return mgr, store
}

// roundTrip resolves a request through the middleware and returns the
// resolved record together with the recorded response.
func roundTrip(t *testing.T, mgr *session.Manager, r *http.Request) (*session.Record, *httptest.ResponseRecorder) {
	t.Helper()
	var rec *session.Record
	w := httptest.NewRecorder()
	mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec = session.MustFromContext(r.Context())
		// Prime the shadow copy while the record is still attached so
		// assertions can read the id after the middleware detaches it.
		_ = rec.ID(r.Context())
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, r)
	require.NotNil(t, rec)
	return rec, w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie on response")
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a secret", func(t *testing.T) {
		t.Parallel()
		_, err := session.New(session.NewMemoryStore())
		assert.ErrorIs(t, err, session.ErrNoSecret)
	})
}

func TestManager_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no cookie issues fresh session with valid wire format", func(t *testing.T) {
		t.Parallel()
		mgr, store := newManager(t)

		rec, w := roundTrip(t, mgr, httptest.NewRequest("GET", "/", nil))

		assert.True(t, rec.IsNew())
		assert.Regexp(t, `^[0-9a-f]{40}$`, rec.ID(ctx))
		assert.NotEmpty(t, rec.CSRFToken(ctx))
		assert.WithinDuration(t, time.Now(), rec.CreatedAt(), time.Minute)
		assert.Equal(t, 1, store.Len())

		c := sessionCookie(t, w)
		assert.Regexp(t, cookieFormat, c.Value)
		assert.True(t, session.Verify(testSecret, rec.ID(ctx), rec.Created(),
			c.Value[:128]))
	})

	t.Run("valid cookie resolves to the same record", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		first, w := roundTrip(t, mgr, httptest.NewRequest("GET", "/", nil))
		c := sessionCookie(t, w)

		r2 := httptest.NewRequest("GET", "/", nil)
		r2.AddCookie(c)
		second, _ := roundTrip(t, mgr, r2)

		assert.False(t, second.IsNew())
		assert.Equal(t, first.ID(ctx), second.ID(ctx))
	})

	t.Run("idempotent within one request", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		r := httptest.NewRequest("GET", "/", nil)
		rec, err := mgr.Resolve(r.Context(), r)
		require.NoError(t, err)

		again, err := mgr.Resolve(session.WithRecord(r.Context(), rec), r)
		require.NoError(t, err)
		assert.Same(t, rec, again)
	})

	t.Run("malformed cookie issues fresh session", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		for _, value := range []string{
			"garbage",
			"only:two",
			"a:b:c:d",
			session.Sign(testSecret, "abc", 1) + ":abc:notanumber",
		} {
			r := httptest.NewRequest("GET", "/", nil)
			r.AddCookie(&http.Cookie{Name: "session", Value: value})
			rec, _ := roundTrip(t, mgr, r)
			assert.True(t, rec.IsNew(), "cookie %q must not resolve", value)
		}
	})

	t.Run("bad signature issues fresh session", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		_, w := roundTrip(t, mgr, httptest.NewRequest("GET", "/", nil))
		c := sessionCookie(t, w)

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: "session", Value: flipFirstChar(c.Value)})
		rec, _ := roundTrip(t, mgr, r)
		assert.True(t, rec.IsNew())
	})

	t.Run("unknown id behaves like no cookie", func(t *testing.T) {
		t.Parallel()
		mgr, _ := newManager(t)

		// Properly signed reference to a record that was never stored.
		id := "00112233445566778899aabbccddeeff00112233"
		created := time.Now().Unix()
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: "session", Value: session.BuildCookie(testSecret, id, created)})

		rec, w := roundTrip(t, mgr, r)
		assert.True(t, rec.IsNew())
		assert.NotEqual(t, id, rec.ID(ctx))
		assert.Regexp(t, cookieFormat, sessionCookie(t, w).Value)
	})
}

func TestManager_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const duration = time.Hour

	// seed inserts a record with a chosen creation time and returns its
	// signed cookie.
	seed := func(t *testing.T, store *session.MemoryStore, createdAt time.Time) (string, *http.Cookie) {
		t.Helper()
		id := "f005ba11f005ba11f005ba11f005ba11f005ba11"
		require.NoError(t, store.Insert(ctx, &session.RecordData{
			ID:        id,
			CreatedAt: createdAt,
			CSRFToken: "token",
			Payload:   map[string]any{},
		}))
		return id, &http.Cookie{
			Name:  "session",
			Value: session.BuildCookie(testSecret, id, createdAt.Unix()),
		}
	}

	t.Run("past the window is expired and superseded", func(t *testing.T) {
		t.Parallel()
		mgr, store := newManager(t, session.WithDuration(duration))
		id, c := seed(t, store, time.Now().Add(-duration-time.Second))

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(c)
		rec, _ := roundTrip(t, mgr, r)

		assert.True(t, rec.IsNew())
		assert.NotEqual(t, id, rec.ID(ctx))

		// The expired record was deleted, not kept alongside the new one.
		_, err := store.Find(ctx, id)
		assert.ErrorIs(t, err, session.ErrRecordNotFound)
	})

	t.Run("inside the window is still valid", func(t *testing.T) {
		t.Parallel()
		mgr, store := newManager(t, session.WithDuration(duration))
		id, c := seed(t, store, time.Now().Add(-duration+time.Second))

		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(c)
		rec, _ := roundTrip(t, mgr, r)

		assert.False(t, rec.IsNew())
		assert.Equal(t, id, rec.ID(ctx))
	})
}
