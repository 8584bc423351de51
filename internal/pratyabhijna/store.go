package pratyabhijna

import (
	"context"
	"database/sql"
	"encoding/json"
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

CREATE TABLE IF NOT EXISTS pratyabhijna_context (
	session_id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// Store persists built Context values for analytics, independent of the
// in-memory Cache a running session reads from.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the pratyabhijna context store rooted at
// home, sharing the same agent.db file the other agent-scoped stores use.
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
		return nil, errkind.Wrap("init pratyabhijna schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "pratyabhijna_schema_version", "1"); err != nil {
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

// Persist records ctx as a JSON blob keyed by session id, replacing any
// prior record for that session.
func (s *Store) Persist(ctx context.Context, c Context) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return errkind.Wrap("marshal pratyabhijna context", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pratyabhijna_context (session_id, project, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET project = excluded.project, payload = excluded.payload, created_at = excluded.created_at
	`, c.SessionID, c.Project, string(payload), c.CreatedAt.Format(time.RFC3339Nano))
	return errkind.Wrap("persist pratyabhijna context", err)
}

// Load returns the persisted context for sessionID, if any.
func (s *Store) Load(ctx context.Context, sessionID string) (Context, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM pratyabhijna_context WHERE session_id = ?`, sessionID)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return Context{}, false, nil
		}
		return Context{}, false, errkind.Wrap("load pratyabhijna context", err)
	}
	var c Context
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Context{}, false, errkind.Wrap("unmarshal pratyabhijna context", err)
	}
	return c, true, nil
}
