package session

import (
	"context"
	"time"
)

// Message is a single one-shot flash message scoped to a named queue.
// The id is assigned by the store and used for individual deletion at
// pop time.
type Message struct {
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Queue string `json:"queue"`
}

// RecordData is the raw persisted form of a session record, as exchanged
// with a Store. Flash messages are loaded eagerly alongside the record.
type RecordData struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	CSRFToken string         `json:"csrf_token"`
	Payload   map[string]any `json:"payload"`
	Messages  []Message      `json:"messages"`
}

// Store defines the persistence backend for session records.
//
// Payload writes are coarse-grained: every mutation replaces the whole
// stored payload, because the backend is not expected to track partial
// mutations. Concurrency control between requests sharing a record is
// delegated entirely to the backend.
type Store interface {
	// Insert persists a freshly created record.
	Insert(ctx context.Context, data *RecordData) error

	// Find loads the record with the given id, including its flash
	// messages. Returns ErrRecordNotFound when no record exists.
	Find(ctx context.Context, id string) (*RecordData, error)

	// SavePayload replaces the stored payload of the record.
	SavePayload(ctx context.Context, id string, payload map[string]any) error

	// SaveCSRFToken replaces the stored CSRF token of the record.
	SaveCSRFToken(ctx context.Context, id, token string) error

	// AppendMessage adds a flash message to the record's queue and
	// returns its store-assigned id.
	AppendMessage(ctx context.Context, id string, text, queue string) (int64, error)

	// DeleteMessage removes a single flash message by its id.
	DeleteMessage(ctx context.Context, messageID int64) error

	// Delete removes the record and all of its messages.
	Delete(ctx context.Context, id string) error
}
