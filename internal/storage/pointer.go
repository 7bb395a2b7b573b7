package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PointerRepository persists the owner → document location record in
// SQLite. One row per owner, upserted on every write-through.
type PointerRepository struct {
	db *sql.DB
}

// NewPointerRepository creates a PointerRepository with the given
// database connection.
func NewPointerRepository(db *sql.DB) *PointerRepository {
	return &PointerRepository{db: db}
}

// Init creates the backing table if it does not exist.
func (r *PointerRepository) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS collection_pointers (
			owner_id TEXT PRIMARY KEY,
			document_location TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create pointer table: %w", err)
	}
	return nil
}

// Update upserts the owner's document location.
func (r *PointerRepository) Update(ctx context.Context, ownerID, documentLocation string) error {
	query := `
		INSERT INTO collection_pointers (owner_id, document_location, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			document_location = excluded.document_location,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, ownerID, documentLocation, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert pointer: %w", err)
	}
	return nil
}

// Get returns the owner's current document location, or "" when the
// owner has no record yet.
func (r *PointerRepository) Get(ctx context.Context, ownerID string) (string, error) {
	query := `SELECT document_location FROM collection_pointers WHERE owner_id = ?`

	var location string
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&location)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query pointer: %w", err)
	}
	return location, nil
}
