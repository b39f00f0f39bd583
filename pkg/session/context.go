package session

import "context"

type recordContextKey struct{}

// WithRecord adds a session record to the context
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, recordContextKey{}, rec)
}

// FromContext retrieves the session record from the context
func FromContext(ctx context.Context) (*Record, bool) {
	rec, ok := ctx.Value(recordContextKey{}).(*Record)
	return rec, ok
}

// MustFromContext retrieves the session record from the context or panics
func MustFromContext(ctx context.Context) *Record {
	rec, ok := FromContext(ctx)
	if !ok {
		panic("session: record not found in context")
	}
	return rec
}
