package vasana

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

CREATE TABLE IF NOT EXISTS vasanas (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	valence TEXT NOT NULL DEFAULT 'neutral',
	strength REAL NOT NULL DEFAULT 0,
	stability REAL NOT NULL DEFAULT 0,
	project TEXT NOT NULL,
	created_at TEXT NOT NULL,
	last_activated TEXT NOT NULL,
	activation_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_vasanas_project ON vasanas(project);
`

// Store persists Vasana rows in the agent database, alongside sessions.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the vasana store rooted at home, sharing
// the same agent.db file the session store writes to.
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
		return nil, errkind.Wrap("init vasana schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "vasana_schema_version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already-open db, for callers that share a connection
// with another store (e.g. session.Store) rather than opening their own.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Close releases the underlying database handle. Only call this on a Store
// returned by Open; a Store built with NewStore does not own its db.
func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or replaces a vasana by id.
func (s *Store) Upsert(ctx context.Context, v Vasana) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vasanas (id, name, description, valence, strength, stability, project, created_at, last_activated, activation_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, description = excluded.description, valence = excluded.valence,
			strength = excluded.strength, stability = excluded.stability, project = excluded.project,
			last_activated = excluded.last_activated, activation_count = excluded.activation_count
	`, v.ID, v.Name, v.Description, string(v.Valence), v.Strength, v.Stability, v.Project,
		v.CreatedAt.Format(time.RFC3339Nano), v.LastActivated.Format(time.RFC3339Nano), v.ActivationCount)
	return errkind.Wrap("upsert vasana", err)
}

// ByProject returns every vasana for project (or GlobalProject), most
// recently activated first.
func (s *Store) ByProject(ctx context.Context, project string) ([]Vasana, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, valence, strength, stability, project, created_at, last_activated, activation_count
		FROM vasanas WHERE project = ? ORDER BY last_activated DESC
	`, project)
	if err != nil {
		return nil, errkind.Wrap("query vasanas by project", err)
	}
	defer rows.Close()
	return scanVasanas(rows)
}

// Delete removes a vasana by id, used when consolidation prunes it below
// the strength threshold.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vasanas WHERE id = ?`, id)
	return errkind.Wrap("delete vasana", err)
}

// All returns every persisted vasana, used by decay sweeps and promotion
// evaluation across projects.
func (s *Store) All(ctx context.Context) ([]Vasana, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, valence, strength, stability, project, created_at, last_activated, activation_count
		FROM vasanas ORDER BY project, last_activated DESC
	`)
	if err != nil {
		return nil, errkind.Wrap("query all vasanas", err)
	}
	defer rows.Close()
	return scanVasanas(rows)
}

func scanVasanas(rows *sql.Rows) ([]Vasana, error) {
	var out []Vasana
	for rows.Next() {
		var v Vasana
		var valence, createdAt, lastActivated string
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &valence, &v.Strength, &v.Stability, &v.Project,
			&createdAt, &lastActivated, &v.ActivationCount); err != nil {
			return nil, errkind.Wrap("scan vasana row", err)
		}
		v.Valence = Valence(valence)
		v.CreatedAt = sqlite.ParseTimeString(createdAt)
		v.LastActivated = sqlite.ParseTimeString(lastActivated)
		out = append(out, v)
	}
	return out, errkind.Wrap("iterate vasana rows", rows.Err())
}
