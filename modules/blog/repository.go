package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"miniblog/pkg/pg"
)

var (
	// ErrEntryNotFound is returned when no entry exists for the given id.
	ErrEntryNotFound = errors.New("blog.entry_not_found")
	// ErrCategoryNotFound is returned when no category exists for the given name.
	ErrCategoryNotFound = errors.New("blog.category_not_found")
	// ErrDuplicateTitle is returned when an entry title is already taken.
	ErrDuplicateTitle = errors.New("blog.duplicate_title")
	// ErrDuplicateCategory is returned when a category name is already taken.
	ErrDuplicateCategory = errors.New("blog.duplicate_category")
	// ErrCategoryInUse is returned when deleting a category that still has entries.
	ErrCategoryInUse = errors.New("blog.category_in_use")
)

// Repository persists entries and categories in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = "id, title, text, entry_time, COALESCE(category_name, '')"

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Title, &e.Text, &e.EntryTime, &e.CategoryName); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// ListEntries returns all entries, newest first.
func (r *Repository) ListEntries(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+entryColumns+" FROM entries ORDER BY entry_time DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return scanEntries(rows)
}

// EntriesByCategory returns the entries filed under the named category,
// newest first.
func (r *Repository) EntriesByCategory(ctx context.Context, name string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE category_name = $1 ORDER BY entry_time DESC, id DESC",
		name)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries by category: %w", err)
	}
	return scanEntries(rows)
}

// RecentEntries returns up to limit entries, newest first.
func (r *Repository) RecentEntries(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+entryColumns+" FROM entries ORDER BY entry_time DESC, id DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent entries: %w", err)
	}
	return scanEntries(rows)
}

// SearchEntries returns entries whose title contains the query,
// case-insensitively, newest first.
func (r *Repository) SearchEntries(ctx context.Context, query string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE title ILIKE '%' || $1 || '%' ORDER BY entry_time DESC, id DESC",
		query)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	return scanEntries(rows)
}

// GetEntry returns the entry with the given id, or ErrEntryNotFound.
func (r *Repository) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE id = $1", id).
		Scan(&e.ID, &e.Title, &e.Text, &e.EntryTime, &e.CategoryName)
	if pg.IsNotFound(err) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &e, nil
}

// CreateEntry inserts a new entry and returns it with the assigned id.
// An empty category stores NULL.
func (r *Repository) CreateEntry(ctx context.Context, e Entry) (*Entry, error) {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO entries (title, text, entry_time, category_name) VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id",
		e.Title, e.Text, e.EntryTime, e.CategoryName).Scan(&e.ID)
	if pg.IsDuplicateKey(err) {
		return nil, ErrDuplicateTitle
	}
	if pg.IsForeignKeyViolation(err) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return &e, nil
}

// UpdateEntry overwrites the stored entry with the same id.
func (r *Repository) UpdateEntry(ctx context.Context, e Entry) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE entries SET title = $2, text = $3, category_name = NULLIF($4, '') WHERE id = $1",
		e.ID, e.Title, e.Text, e.CategoryName)
	if pg.IsDuplicateKey(err) {
		return ErrDuplicateTitle
	}
	if pg.IsForeignKeyViolation(err) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// DeleteEntry removes the entry with the given id.
func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ListCategories returns all category names in alphabetical order.
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return names, nil
}

// CreateCategory adds a new category.
func (r *Repository) CreateCategory(ctx context.Context, name string) error {
	_, err := r.pool.Exec(ctx, "INSERT INTO categories (name) VALUES ($1)", name)
	if pg.IsDuplicateKey(err) {
		return ErrDuplicateCategory
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Categories that still have entries
// filed under them cannot be removed.
func (r *Repository) DeleteCategory(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM categories WHERE name = $1", name)
	if pg.IsForeignKeyViolation(err) {
		return ErrCategoryInUse
	}
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
