package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	location    TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	data        BLOB NOT NULL,
	uploaded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blobs_name ON blobs(name);
`

// SQLiteBlobStore implements BlobStore on a sqlite database. Blob keys
// double as locations since they are already unique per write.
type SQLiteBlobStore struct {
	db *sql.DB
}

// NewSQLiteBlobStore creates the blob table if needed and returns a
// store.
func NewSQLiteBlobStore(db *sql.DB) (*SQLiteBlobStore, error) {
	if _, err := db.Exec(blobSchema); err != nil {
		return nil, fmt.Errorf("create blob schema: %w", err)
	}
	return &SQLiteBlobStore{db: db}, nil
}

// List returns blobs matching the prefix, most recently uploaded first.
func (s *SQLiteBlobStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, uploaded_at, location FROM blobs
		 WHERE name LIKE ? || '%' ORDER BY uploaded_at DESC, location DESC`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()

	var infos []BlobInfo
	for rows.Next() {
		var info BlobInfo
		if err := rows.Scan(&info.Name, &info.UploadedAt, &info.Location); err != nil {
			return nil, fmt.Errorf("scan blob row: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Read returns a blob's data by location.
func (s *SQLiteBlobStore) Read(ctx context.Context, location string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM blobs WHERE location = ?", location).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("blob %q: %w", location, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Write stores a new blob under key and returns its location.
func (s *SQLiteBlobStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (location, name, data, uploaded_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(location) DO UPDATE SET data = excluded.data, uploaded_at = excluded.uploaded_at`,
		key, key, data, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return key, nil
}

// Delete removes a blob by location. Deleting a missing blob is not an
// error.
func (s *SQLiteBlobStore) Delete(ctx context.Context, location string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE location = ?", location); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
