package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SecretRepository stores secrets as rows of the secrets table.
//
// It satisfies auth.SecretStore. Each Set is a single upsert, so a row is never half written.
type SecretRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSecretRepository creates a new [SecretRepository] with the given database connection
func NewSecretRepository(db *sql.DB) *SecretRepository {
	return &SecretRepository{db: db, now: time.Now}
}

// Get retrieves the value for key. A missing key reports ok=false.
func (r *SecretRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM secrets WHERE key = ?`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query secret %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key.
func (r *SecretRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("secret key must not be empty")
	}

	query := `
		INSERT INTO secrets (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, value, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to store secret %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SecretRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete secret %s: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (r *SecretRepository) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM secrets WHERE key = ?`, key).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query secret %s: %w", key, err)
	}
	return updatedAt, true, nil
}

// Close closes the underlying database.
func (r *SecretRepository) Close() error {
	return r.db.Close()
}
