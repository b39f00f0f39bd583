package session

import (
	"context"
	"maps"
	"time"
)

// Record is a session record owned by exactly one request. It is a handle
// over the persisted row: reads of id, CSRF token and payload go through a
// lazily populated shadow copy so the record stays readable after it has
// been detached from its store, and every payload mutation replaces the
// whole stored payload through a single write path.
//
// Record performs no locking of its own; cross-request coordination is the
// store's concern.
type Record struct {
	store Store // nil once detached
	key   string

	createdAt time.Time

	cachedID string
	idLoaded bool

	cachedCSRF string
	csrfLoaded bool

	payload       map[string]any
	payloadLoaded bool

	messages       []Message
	messagesLoaded bool

	fresh       bool
	invalidated bool
	cookie      string
}

// newRecord builds a freshly created record with all shadow fields primed.
func newRecord(store Store, id, csrfToken string, createdAt time.Time) *Record {
	return &Record{
		store:          store,
		key:            id,
		createdAt:      createdAt,
		cachedID:       id,
		idLoaded:       true,
		cachedCSRF:     csrfToken,
		csrfLoaded:     true,
		payload:        map[string]any{},
		payloadLoaded:  true,
		messages:       nil,
		messagesLoaded: true,
		fresh:          true,
	}
}

// loadedRecord builds a handle over an existing row. Flash messages are
// primed eagerly (they arrive with the lookup); id, CSRF token and payload
// stay lazy so the shadow copy reflects what was actually accessed.
func loadedRecord(store Store, id string, createdAt time.Time, messages []Message) *Record {
	return &Record{
		store:          store,
		key:            id,
		createdAt:      createdAt,
		messages:       messages,
		messagesLoaded: true,
	}
}

// fetch loads the backing row, or fails when the record is detached.
func (r *Record) fetch(ctx context.Context) (*RecordData, error) {
	if r.store == nil {
		return nil, ErrDetached
	}
	return r.store.Find(ctx, r.key)
}

// Detach severs the record from its store. Subsequent reads serve the
// shadow copy or per-field defaults; mutations fail with ErrDetached.
func (r *Record) Detach() {
	r.store = nil
}

// IsNew reports whether the record was created during this resolution
// rather than loaded from the store.
func (r *Record) IsNew() bool { return r.fresh }

// Invalidated reports whether Invalidate has been called.
func (r *Record) Invalidated() bool { return r.invalidated }

// CreatedAt returns the immutable creation time.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// Created returns the creation time as a unix timestamp, the exact value
// embedded in the cookie signature input.
func (r *Record) Created() int64 { return r.createdAt.Unix() }

// ID returns the session identifier, or "" when the record is detached and
// the field was never read while attached.
func (r *Record) ID(ctx context.Context) string {
	if r.idLoaded {
		return r.cachedID
	}
	data, err := r.fetch(ctx)
	if err != nil {
		return ""
	}
	r.cachedID = data.ID
	r.idLoaded = true
	return r.cachedID
}

// CSRFToken returns the current CSRF token, or "" when the record is
// detached and the field was never read while attached.
func (r *Record) CSRFToken(ctx context.Context) string {
	if r.csrfLoaded {
		return r.cachedCSRF
	}
	data, err := r.fetch(ctx)
	if err != nil {
		return ""
	}
	r.cachedCSRF = data.CSRFToken
	r.csrfLoaded = true
	return r.cachedCSRF
}

// NewCSRFToken generates a fresh CSRF token, persists it and returns it.
// The previous token is overwritten; there is no history.
func (r *Record) NewCSRFToken(ctx context.Context) (string, error) {
	token, err := newID()
	if err != nil {
		return "", err
	}
	if r.store == nil {
		return "", ErrDetached
	}
	if err := r.store.SaveCSRFToken(ctx, r.key, token); err != nil {
		return "", err
	}
	r.cachedCSRF = token
	r.csrfLoaded = true
	return token, nil
}

// Invalidate removes the record from the store and schedules removal of
// the client cookie at emission time.
func (r *Record) Invalidate(ctx context.Context) error {
	if r.store == nil {
		return ErrDetached
	}
	if err := r.store.Delete(ctx, r.key); err != nil {
		return err
	}
	r.invalidated = true
	return nil
}

// ensurePayload populates the payload shadow from the store on first use.
func (r *Record) ensurePayload(ctx context.Context) error {
	if r.payloadLoaded {
		return nil
	}
	data, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	r.payload = data.Payload
	if r.payload == nil {
		r.payload = map[string]any{}
	}
	r.payloadLoaded = true
	return nil
}

// view returns the readable payload. A detached, never-loaded payload reads
// as empty rather than failing.
func (r *Record) view(ctx context.Context) map[string]any {
	if err := r.ensurePayload(ctx); err != nil {
		return nil
	}
	return r.payload
}

// commit replaces the stored payload with next and swaps the shadow copy.
// The shadow is only updated once the write succeeded.
func (r *Record) commit(ctx context.Context, next map[string]any) error {
	if r.store == nil {
		return ErrDetached
	}
	if err := r.store.SavePayload(ctx, r.key, next); err != nil {
		return err
	}
	r.payload = next
	r.payloadLoaded = true
	return nil
}

// scratch returns a mutable copy of the current payload for a mutation.
func (r *Record) scratch(ctx context.Context) (map[string]any, error) {
	if err := r.ensurePayload(ctx); err != nil {
		return nil, err
	}
	next := make(map[string]any, len(r.payload)+1)
	maps.Copy(next, r.payload)
	return next, nil
}

// Get retrieves a payload value.
func (r *Record) Get(ctx context.Context, key string) (any, bool) {
	val, ok := r.view(ctx)[key]
	return val, ok
}

// GetString retrieves a string payload value.
func (r *Record) GetString(ctx context.Context, key string) (string, bool) {
	val, ok := r.Get(ctx, key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// Has reports whether a payload key exists.
func (r *Record) Has(ctx context.Context, key string) bool {
	_, ok := r.Get(ctx, key)
	return ok
}

// Len returns the number of payload entries.
func (r *Record) Len(ctx context.Context) int {
	return len(r.view(ctx))
}

// Keys returns the payload keys in unspecified order.
func (r *Record) Keys(ctx context.Context) []string {
	p := r.view(ctx)
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

// Values returns the payload values in unspecified order.
func (r *Record) Values(ctx context.Context) []any {
	p := r.view(ctx)
	values := make([]any, 0, len(p))
	for _, v := range p {
		values = append(values, v)
	}
	return values
}

// Pairs returns a copy of the whole payload.
func (r *Record) Pairs(ctx context.Context) map[string]any {
	p := r.view(ctx)
	pairs := make(map[string]any, len(p))
	maps.Copy(pairs, p)
	return pairs
}

// Set stores a payload value.
func (r *Record) Set(ctx context.Context, key string, value any) error {
	next, err := r.scratch(ctx)
	if err != nil {
		return err
	}
	next[key] = value
	return r.commit(ctx, next)
}

// Delete removes a payload key. Removing an absent key is a no-op write.
func (r *Record) Delete(ctx context.Context, key string) error {
	next, err := r.scratch(ctx)
	if err != nil {
		return err
	}
	delete(next, key)
	return r.commit(ctx, next)
}

// SetDefault stores value under key unless the key already exists, and
// returns the value now present.
func (r *Record) SetDefault(ctx context.Context, key string, value any) (any, error) {
	if existing, ok := r.Get(ctx, key); ok {
		return existing, nil
	}
	next, err := r.scratch(ctx)
	if err != nil {
		return nil, err
	}
	next[key] = value
	if err := r.commit(ctx, next); err != nil {
		return nil, err
	}
	return value, nil
}

// Update merges values into the payload.
func (r *Record) Update(ctx context.Context, values map[string]any) error {
	next, err := r.scratch(ctx)
	if err != nil {
		return err
	}
	maps.Copy(next, values)
	return r.commit(ctx, next)
}

// Pop removes key and returns its previous value.
func (r *Record) Pop(ctx context.Context, key string) (any, bool, error) {
	next, err := r.scratch(ctx)
	if err != nil {
		return nil, false, err
	}
	val, ok := next[key]
	if !ok {
		return nil, false, nil
	}
	delete(next, key)
	if err := r.commit(ctx, next); err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// PopItem removes and returns an arbitrary payload entry.
func (r *Record) PopItem(ctx context.Context) (string, any, bool, error) {
	next, err := r.scratch(ctx)
	if err != nil {
		return "", nil, false, err
	}
	for k, v := range next {
		delete(next, k)
		if err := r.commit(ctx, next); err != nil {
			return "", nil, false, err
		}
		return k, v, true, nil
	}
	return "", nil, false, nil
}

// Clear removes all payload entries.
func (r *Record) Clear(ctx context.Context) error {
	if err := r.ensurePayload(ctx); err != nil {
		return err
	}
	return r.commit(ctx, map[string]any{})
}
