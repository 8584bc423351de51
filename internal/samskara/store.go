package samskara

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

CREATE TABLE IF NOT EXISTS samskaras (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL DEFAULT '',
	pattern_type TEXT NOT NULL,
	pattern_content TEXT NOT NULL,
	observation_count INTEGER NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	project TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	last_reinforced_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samskaras_project ON samskaras(project);
`

// Store persists Samskara rows in the agent database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the samskara store rooted at home,
// sharing the same agent.db file the session and vasana stores write to.
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
		return nil, errkind.Wrap("init samskara schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "samskara_schema_version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already-open db, for callers that share a connection
// with another store rather than opening their own.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Close releases the underlying database handle. Only call this on a Store
// returned by Open.
func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or replaces a samskara by id.
func (s *Store) Upsert(ctx context.Context, sk Samskara) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samskaras (id, session_id, pattern_type, pattern_content, observation_count, confidence, project, tags, created_at, last_reinforced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			session_id = excluded.session_id, observation_count = excluded.observation_count,
			confidence = excluded.confidence, tags = excluded.tags, last_reinforced_at = excluded.last_reinforced_at
	`, sk.ID, sk.SessionID, string(sk.PatternType), sk.PatternContent, sk.ObservationCount, sk.Confidence,
		sk.Project, sqlite.FormatJSONStringArray(sk.Tags), sk.CreatedAt.Format(time.RFC3339Nano), sk.LastReinforcedAt.Format(time.RFC3339Nano))
	return errkind.Wrap("upsert samskara", err)
}

// ByProject returns every samskara for project, most recently reinforced
// first.
func (s *Store) ByProject(ctx context.Context, project string) ([]Samskara, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, pattern_type, pattern_content, observation_count, confidence, project, tags, created_at, last_reinforced_at
		FROM samskaras WHERE project = ? ORDER BY last_reinforced_at DESC
	`, project)
	if err != nil {
		return nil, errkind.Wrap("query samskaras by project", err)
	}
	defer rows.Close()
	return scanSamskaras(rows)
}

// All returns every persisted samskara, used by decay/prune sweeps.
func (s *Store) All(ctx context.Context) ([]Samskara, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, pattern_type, pattern_content, observation_count, confidence, project, tags, created_at, last_reinforced_at
		FROM samskaras ORDER BY project, last_reinforced_at DESC
	`)
	if err != nil {
		return nil, errkind.Wrap("query all samskaras", err)
	}
	defer rows.Close()
	return scanSamskaras(rows)
}

// Delete removes a samskara by id, used when consolidation prunes it below
// the confidence threshold.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM samskaras WHERE id = ?`, id)
	return errkind.Wrap("delete samskara", err)
}

func scanSamskaras(rows *sql.Rows) ([]Samskara, error) {
	var out []Samskara
	for rows.Next() {
		var sk Samskara
		var pt, tags, createdAt, lastReinforced string
		if err := rows.Scan(&sk.ID, &sk.SessionID, &pt, &sk.PatternContent, &sk.ObservationCount, &sk.Confidence,
			&sk.Project, &tags, &createdAt, &lastReinforced); err != nil {
			return nil, errkind.Wrap("scan samskara row", err)
		}
		sk.PatternType = PatternType(pt)
		sk.Tags = sqlite.ParseJSONStringArray(tags)
		sk.CreatedAt = sqlite.ParseTimeString(createdAt)
		sk.LastReinforcedAt = sqlite.ParseTimeString(lastReinforced)
		out = append(out, sk)
	}
	return out, errkind.Wrap("iterate samskara rows", rows.Err())
}
