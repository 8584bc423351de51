package sqlite

import (
	"context"
	"database/sql"

	"github.com/sriinnu/chitragupta/internal/errkind"
)

// ConfigStore wraps a *sql.DB with a generic key/value table used for
// per-database bookkeeping: schema version markers, last-consolidation-run
// timestamps, and other small pieces of state that don't warrant their own
// table. Each of the three databases (agent.db, graph.db, vectors.db) keeps
// its own config table and its own ConfigStore.
type ConfigStore struct {
	db *sql.DB
}

// NewConfigStore wraps db. The caller is responsible for having created the
// `config(key TEXT PRIMARY KEY, value TEXT NOT NULL)` table.
func NewConfigStore(db *sql.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Set upserts a configuration value.
func (s *ConfigStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return errkind.Wrap("set config", err)
}

// Get returns the value for key, or "" if unset.
func (s *ConfigStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, errkind.Wrap("get config", err)
}

// GetAll returns every configuration key/value pair.
func (s *ConfigStore) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config ORDER BY key`)
	if err != nil {
		return nil, errkind.Wrap("query all config", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errkind.Wrap("scan config row", err)
		}
		out[key] = value
	}
	return out, errkind.Wrap("iterate config rows", rows.Err())
}

// Delete removes a configuration value. Deleting an unset key is a no-op.
func (s *ConfigStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM config WHERE key = ?`, key)
	return errkind.Wrap("delete config", err)
}
