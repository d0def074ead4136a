package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/stacks/internal/shared"
)

// Setting is one row of the settings table.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// SettingsRepository persists key/value settings.
type SettingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSettingsRepository creates a new [SettingsRepository] with the given database connection
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db, now: time.Now}
}

// Get returns the setting stored under key, or [shared.ErrItemNotFound].
func (r *SettingsRepository) Get(key string) (*Setting, error) {
	query := `SELECT key, value, updated_at FROM settings WHERE key = ?`

	var s Setting
	err := r.db.QueryRow(query, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: setting %s", shared.ErrItemNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query setting: %w", err)
	}
	return &s, nil
}

// Set inserts or replaces the value stored under key.
func (r *SettingsRepository) Set(key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, key, value, r.now().UTC()); err != nil {
		return fmt.Errorf("failed to store setting: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}
