package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// sqliteNow is evaluated by the database so every collaborator shares one clock.
const sqliteNow = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// SQLiteStore keeps documents as JSON blobs in the documents table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over a migrated database.
func NewSQLiteStore(d *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

// FetchAll returns documents in insertion order.
func (s *SQLiteStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? ORDER BY rowid`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w: %v", collection, ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, data, createdAt, updatedAt string
		if err := rows.Scan(&id, &data, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w: %v", collection, ErrStoreUnavailable, err)
		}
		rec, err := decodeRow(data, createdAt, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w: %v", collection, id, ErrStoreUnavailable, err)
		}
		docs = append(docs, Document{ID: id, Data: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w: %v", collection, ErrStoreUnavailable, err)
	}
	return docs, nil
}

// Insert stores rec under a fresh id.
func (s *SQLiteStore) Insert(ctx context.Context, collection string, rec Record) (string, error) {
	if !validCollection(collection) {
		return "", fmt.Errorf("unknown collection %q: %w", collection, ErrWriteRejected)
	}
	data, err := json.Marshal(withoutServerFields(rec))
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w: %v", ErrWriteRejected, err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES (?, ?, ?, `+sqliteNow+`, '')`,
		collection, id, string(data))
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w: %v", collection, ErrStoreUnavailable, err)
	}
	return id, nil
}

// Patch merges fields into the stored document inside a transaction.
func (s *SQLiteStore) Patch(ctx context.Context, collection, id string, fields Record) error {
	if !validCollection(collection) {
		return fmt.Errorf("unknown collection %q: %w", collection, ErrWriteRejected)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin patch: %w: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s/%s: %w: %v", collection, id, ErrStoreUnavailable, err)
	}

	current := Record{}
	if err := json.Unmarshal([]byte(data), &current); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w: %v", collection, id, ErrStoreUnavailable, err)
	}
	for k, v := range withoutServerFields(fields) {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w: %v", ErrWriteRejected, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = `+sqliteNow+` WHERE collection = ? AND id = ?`,
		string(merged), collection, id); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w: %v", collection, id, ErrStoreUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patch: %w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// FetchOne returns nil, nil for a missing id.
func (s *SQLiteStore) FetchOne(ctx context.Context, collection, id string) (*Document, error) {
	var data, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w: %v", collection, id, ErrStoreUnavailable, err)
	}
	rec, err := decodeRow(data, createdAt, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w: %v", collection, id, ErrStoreUnavailable, err)
	}
	return &Document{ID: id, Data: rec}, nil
}

func decodeRow(data, createdAt, updatedAt string) (Record, error) {
	rec := Record{}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	rec[FieldCreatedAt] = createdAt
	if updatedAt != "" {
		rec[FieldUpdatedAt] = updatedAt
	}
	return rec, nil
}
