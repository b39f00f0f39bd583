package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on top of a PostgreSQL pool. The payload is
// stored as a single jsonb column and replaced wholesale on every
// mutation; row-level concurrency control is the database's job.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed session store
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Insert(ctx context.Context, data *RecordData) error {
	// created_at is a BIGINT holding unix seconds, the same unit the
	// cookie timestamp carries.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, created_at, csrf_token, payload) VALUES ($1, $2, $3, $4)`,
		data.ID, data.CreatedAt.Unix(), data.CSRFToken, data.Payload)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*RecordData, error) {
	data := &RecordData{}
	var created int64
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at, csrf_token, payload FROM sessions WHERE id = $1`, id).
		Scan(&data.ID, &created, &data.CSRFToken, &data.Payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	data.CreatedAt = time.Unix(created, 0)

	rows, err := s.pool.Query(ctx,
		`SELECT id, message, queue FROM session_messages WHERE session_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Text, &m.Queue); err != nil {
			return nil, err
		}
		data.Messages = append(data.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *PGStore) SavePayload(ctx context.Context, id string, payload map[string]any) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET payload = $2 WHERE id = $1`, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PGStore) SaveCSRFToken(ctx context.Context, id, token string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET csrf_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PGStore) AppendMessage(ctx context.Context, id string, text, queue string) (int64, error) {
	var messageID int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO session_messages (session_id, message, queue) VALUES ($1, $2, $3) RETURNING id`,
		id, text, queue).Scan(&messageID)
	return messageID, err
}

func (s *PGStore) DeleteMessage(ctx context.Context, messageID int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM session_messages WHERE id = $1`, messageID)
	return err
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	// Messages go with the record via ON DELETE CASCADE.
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
