package session

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process map. It is intended for
// tests and development; records do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*RecordData
	nextID  int64
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*RecordData)}
}

// Insert persists a freshly created record
func (s *MemoryStore) Insert(ctx context.Context, data *RecordData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[data.ID] = cloneData(data)
	return nil
}

// Find loads a record by id
func (s *MemoryStore) Find(ctx context.Context, id string) (*RecordData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneData(data), nil
}

// SavePayload replaces the stored payload
func (s *MemoryStore) SavePayload(ctx context.Context, id string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	data.Payload = make(map[string]any, len(payload))
	maps.Copy(data.Payload, payload)
	return nil
}

// SaveCSRFToken replaces the stored CSRF token
func (s *MemoryStore) SaveCSRFToken(ctx context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	data.CSRFToken = token
	return nil
}

// AppendMessage adds a flash message and returns its assigned id
func (s *MemoryStore) AppendMessage(ctx context.Context, id string, text, queue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.records[id]
	if !ok {
		return 0, ErrRecordNotFound
	}
	s.nextID++
	data.Messages = append(data.Messages, Message{ID: s.nextID, Text: text, Queue: queue})
	return s.nextID, nil
}

// DeleteMessage removes a single flash message by id
func (s *MemoryStore) DeleteMessage(ctx context.Context, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, data := range s.records {
		data.Messages = slices.DeleteFunc(data.Messages, func(m Message) bool {
			return m.ID == messageID
		})
	}
	return nil
}

// Delete removes a record and its messages
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

// DeleteExpired removes records created before the cutoff. The expiry
// window lives in configuration, so the caller computes the cutoff.
func (s *MemoryStore) DeleteExpired(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, data := range s.records {
		if data.CreatedAt.Before(cutoff) {
			delete(s.records, id)
		}
	}
	return nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneData(data *RecordData) *RecordData {
	clone := *data
	clone.Payload = make(map[string]any, len(data.Payload))
	maps.Copy(clone.Payload, data.Payload)
	clone.Messages = slices.Clone(data.Messages)
	return &clone
}
