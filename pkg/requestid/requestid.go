// Package requestid attaches a correlation id to every request so log
// records from one interaction can be tied together.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the request/response header carrying the id.
const Header = "X-Request-ID"

type contextKey struct{}

// WithContext stores a request id in the context.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the request id, or "" when none is set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Middleware reuses a client-supplied id when it parses as a UUID and
// generates one otherwise. The id is echoed back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}
