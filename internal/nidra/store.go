package nidra

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
CREATE TABLE IF NOT EXISTS nidra_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	phase TEXT NOT NULL,
	entered_at TEXT NOT NULL
);
`

// Store persists the machine's current phase and entry time so a restart
// resumes where it left off.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the nidra state store rooted at home,
// sharing the same agent.db file other agent-scoped stores use.
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
		return nil, errkind.Wrap("init nidra schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "nidra_schema_version", "1"); err != nil {
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

// Save persists the machine's current phase and the time it was entered.
func (s *Store) Save(ctx context.Context, phase State, enteredAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nidra_state (id, phase, entered_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET phase = excluded.phase, entered_at = excluded.entered_at
	`, string(phase), enteredAt.Format(time.RFC3339Nano))
	return errkind.Wrap("save nidra state", err)
}

// Load returns the persisted phase and entry time, if any.
func (s *Store) Load(ctx context.Context) (phase State, enteredAt time.Time, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT phase, entered_at FROM nidra_state WHERE id = 1`)
	var p, at string
	if scanErr := row.Scan(&p, &at); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, errkind.Wrap("load nidra state", scanErr)
	}
	parsed, parseErr := time.Parse(time.RFC3339Nano, at)
	if parseErr != nil {
		return "", time.Time{}, false, errkind.Wrap("parse nidra entered_at", parseErr)
	}
	return State(p), parsed, true, nil
}
