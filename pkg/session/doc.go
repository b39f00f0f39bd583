// Package session implements server-side sessions persisted in a database
// and referenced by a signed opaque cookie.
//
// The cookie carries no session state, only a reference:
//
//	<hex_hmac_sha512>:<session_id>:<unix_timestamp>
//
// The HMAC is computed over the session id and creation timestamp with a
// process-wide secret, making the reference tamper-evident without a server
// round trip. The session record itself (CSRF token, arbitrary payload,
// flash messages) lives in a Store.
//
// # Resolution
//
// Manager.Resolve validates the inbound cookie and loads the matching
// record, or transparently creates a fresh anonymous one. Validation is
// fail-closed: a missing, malformed, unverifiable, unknown or expired
// cookie never surfaces as an error to the caller — sessions back
// best-effort conveniences, not authorization.
//
// # Cookie emission
//
// Manager.Middleware resolves the session into the request context and
// emits the outbound cookie exactly once, just before response headers are
// written. Handlers therefore never deal with the cookie directly:
//
//	store := session.NewMemoryStore()
//	mgr, err := session.New(store, session.WithSecret(secret))
//	...
//	r.Use(mgr.Middleware)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		rec := session.MustFromContext(r.Context())
//		rec.Flash(r.Context(), "saved", "", true)
//	}
//
// # Detached access
//
// A record may still be read after the request that owned it has finished,
// for example by deferred logging or template helpers. Record keeps a
// lazily populated shadow copy of its id, CSRF token and payload; once
// detached from the store, reads fall back to the shadow copy, or to a
// zero value if the field was never accessed while attached.
//
// # Concurrency
//
// Concurrent requests sharing one session id are not coordinated: payload
// writes are last-writer-wins at the store level. This is a documented
// limitation, not a bug.
package session
