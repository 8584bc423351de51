package smaran

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/storage"
	"github.com/sriinnu/chitragupta/internal/storage/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS smaran_entries (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_smaran_category ON smaran_entries(category);
`

// Store persists Entry rows in the agent database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the smaran store rooted at home, sharing
// the same agent.db file other agent-scoped stores use.
func Open(ctx context.Context, home *layout.Home) (*Store, error) {
	if err := home.EnsureDirs(); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", storage.SQLiteConnString(home.AgentDB(), false))
	if err != nil {
		return nil, errkind.Wrap("open agent db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errkind.Wrap("enable wal", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errkind.Wrap("init smaran schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "smaran_schema_version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already-open db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Close releases the underlying database handle. Only call this on a Store
// returned by Open.
func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or replaces an entry by id.
func (s *Store) Upsert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO smaran_entries (id, category, content, created_at, confidence)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET content = excluded.content, confidence = excluded.confidence
	`, e.ID, string(e.Category), e.Content, e.CreatedAt.Format(time.RFC3339Nano), e.Confidence)
	return errkind.Wrap("upsert smaran entry", err)
}

// ByCategory returns every entry for category, newest first.
func (s *Store) ByCategory(ctx context.Context, category Category) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, content, created_at, confidence FROM smaran_entries
		WHERE category = ? ORDER BY created_at DESC
	`, string(category))
	if err != nil {
		return nil, errkind.Wrap("query smaran entries by category", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// All returns every remembered entry, newest first.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, content, created_at, confidence FROM smaran_entries ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, errkind.Wrap("query all smaran entries", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Delete removes an entry by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM smaran_entries WHERE id = ?`, id)
	return errkind.Wrap("delete smaran entry", err)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var category, createdAt string
		if err := rows.Scan(&e.ID, &category, &e.Content, &createdAt, &e.Confidence); err != nil {
			return nil, errkind.Wrap("scan smaran entry row", err)
		}
		e.Category = Category(category)
		e.CreatedAt = sqlite.ParseTimeString(createdAt)
		out = append(out, e)
	}
	return out, errkind.Wrap("iterate smaran entry rows", rows.Err())
}
