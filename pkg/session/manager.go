package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"miniblog/pkg/cookie"
)

// maxCookieSize is the emission ceiling for the serialized cookie value,
// chosen to stay under common per-cookie browser limits after attribute
// overhead. Exceeding it is a usage error, not a client condition.
const maxCookieSize = 4064

// Manager resolves inbound requests to session records and emits the
// outbound session cookie. The signing secret and cookie attributes are
// process-wide and read-only after construction.
type Manager struct {
	store   Store
	config  Config
	cookies *cookie.Writer
	log     *slog.Logger
}

// New creates a session manager backed by the given store. A non-empty
// secret is required.
func New(store Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.config.Secret == "" {
		return nil, ErrNoSecret
	}

	if m.cookies == nil {
		m.cookies = cookie.NewWriter(
			cookie.WithPath(m.config.CookiePath),
			cookie.WithDomain(m.config.CookieDomain),
			cookie.WithMaxAge(m.config.CookieMaxAge),
			cookie.WithSecure(m.config.CookieSecure),
			cookie.WithHTTPOnly(m.config.CookieHTTPOnly),
		)
	}

	return m, nil
}

// Resolve returns the session record for the request, creating a fresh
// anonymous one when the inbound cookie is missing, malformed,
// unverifiable, unknown or expired. Within one request Resolve is
// idempotent: once a record is in the context, the same record is
// returned. An error is only possible when persisting a new record fails.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (*Record, error) {
	if rec, ok := FromContext(ctx); ok {
		return rec, nil
	}

	rec, reason := m.lookup(ctx, r)
	if rec != nil {
		return rec, nil
	}

	created, err := m.create(ctx)
	if err != nil {
		return nil, err
	}
	m.log.DebugContext(ctx, "issued new session",
		"reason", reason, "session_id", created.key)
	return created, nil
}

// lookup resolves the inbound cookie to an existing record. Any failure
// collapses to (nil, reason) so the caller issues a fresh session.
func (m *Manager) lookup(ctx context.Context, r *http.Request) (*Record, string) {
	c, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return nil, "no cookie"
	}

	digest, id, created, ok := parseCookie(c.Value)
	if !ok {
		return nil, "malformed cookie"
	}

	if !Verify(m.config.Secret, id, created, digest) {
		return nil, "bad signature"
	}

	data, err := m.store.Find(ctx, id)
	if err != nil {
		return nil, "record not found"
	}

	if time.Unix(created, 0).Add(m.config.Duration).Before(time.Now()) {
		// The expired record is superseded, not kept around.
		if err := m.store.Delete(ctx, id); err != nil {
			m.log.ErrorContext(ctx, "failed to delete expired session",
				"session_id", id, "error", err)
		}
		return nil, "expired"
	}

	rec := loadedRecord(m.store, id, data.CreatedAt, data.Messages)
	rec.cookie = c.Value
	return rec, ""
}

// create generates a fresh identifier, persists the new record and builds
// its signed cookie value.
func (m *Manager) create(ctx context.Context) (*Record, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	csrfToken, err := newID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := m.store.Insert(ctx, &RecordData{
		ID:        id,
		CreatedAt: now,
		CSRFToken: csrfToken,
		Payload:   map[string]any{},
	}); err != nil {
		return nil, err
	}

	rec := newRecord(m.store, id, csrfToken, now)
	rec.cookie = BuildCookie(m.config.Secret, id, rec.Created())
	return rec, nil
}

// Emit writes or clears the session cookie on the response. It is invoked
// by the middleware once per request, before headers are sent. exception
// reports whether the request ended on an exception path; when cookie
// emission is suppressed there, the client's existing cookie is left
// untouched.
func (m *Manager) Emit(w http.ResponseWriter, rec *Record, exception bool) error {
	if rec.Invalidated() {
		m.cookies.Clear(w, m.config.CookieName)
		return nil
	}
	if exception && !m.config.CookieOnException {
		return nil
	}
	if len(rec.cookie) > maxCookieSize {
		return fmt.Errorf("%w: %d bytes", ErrCookieTooLarge, len(rec.cookie))
	}
	m.cookies.Set(w, m.config.CookieName, rec.cookie)
	return nil
}

// BuildCookie serializes the signed cookie value for a session id and its
// creation timestamp.
func BuildCookie(secret, id string, created int64) string {
	return Sign(secret, id, created) + ":" + id + ":" + strconv.FormatInt(created, 10)
}

// parseCookie splits a cookie value into its colon-delimited triple. The
// id must not itself contain a colon, so exactly three fields are
// accepted.
func parseCookie(value string) (digest, id string, created int64, ok bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", 0, false
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", "", 0, false
	}
	return parts[0], parts[1], ts, true
}
