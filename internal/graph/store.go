package graph

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/google/uuid"
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

CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	relationship TEXT NOT NULL,
	weight REAL NOT NULL,
	pramana TEXT NOT NULL DEFAULT '',
	viveka REAL NOT NULL DEFAULT 1,
	valid_from TEXT NOT NULL,
	valid_to TEXT,
	recorded_at TEXT NOT NULL,
	superseded_at TEXT,
	superseded_by TEXT NOT NULL DEFAULT '',
	half_life_days REAL NOT NULL DEFAULT 90
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
CREATE INDEX IF NOT EXISTS idx_edges_rel ON edges(source, target, relationship);

CREATE TABLE IF NOT EXISTS edges_archive (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	relationship TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	superseded_at TEXT,
	payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pagerank (
	node_id TEXT PRIMARY KEY,
	score REAL NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
`

// Store is the SQLite-backed bi-temporal graph store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the graph store rooted at home.
func Open(ctx context.Context, home *layout.Home) (*Store, error) {
	if err := home.EnsureDirs(); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", storage.SQLiteConnString(home.GraphDB(), false))
	if err != nil {
		return nil, errkind.Wrap("open graph db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errkind.Wrap("enable wal", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errkind.Wrap("init graph schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "graph_schema_version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// UpsertEntity inserts or updates an entity by id.
func (s *Store) UpsertEntity(ctx context.Context, e Entity) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, kind, name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET kind = excluded.kind, name = excluded.name
	`, e.ID, e.Kind, e.Name, e.CreatedAt.Format(time.RFC3339Nano))
	return errkind.Wrap("upsert entity", err)
}

// Create inserts a new edge with recorded-at = now. HalfLifeDays defaults to
// 90 when zero.
func (s *Store) Create(ctx context.Context, e Edge) (Edge, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ValidFrom.IsZero() {
		e.ValidFrom = time.Now().UTC()
	}
	e.RecordedAt = time.Now().UTC()
	if e.HalfLifeDays <= 0 {
		e.HalfLifeDays = 90
	}
	if e.Viveka == 0 {
		e.Viveka = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (id, source, target, relationship, weight, pramana, viveka, valid_from, valid_to, recorded_at, superseded_at, superseded_by, half_life_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, '', ?)
	`, e.ID, e.Source, e.Target, e.Relationship, e.Weight, e.Pramana, e.Viveka,
		e.ValidFrom.Format(time.RFC3339Nano), formatNullableTime(e.ValidTo), e.RecordedAt.Format(time.RFC3339Nano), e.HalfLifeDays)
	if err != nil {
		return Edge{}, errkind.Wrap("insert edge", err)
	}
	return e, nil
}

// Supersede marks edgeID as superseded at now and inserts newEdge, linking
// the two by id. The old row is never mutated beyond its superseded-at and
// superseded-by columns.
func (s *Store) Supersede(ctx context.Context, edgeID string, newEdge Edge) (Edge, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Edge{}, errkind.Wrap("begin supersede tx", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if newEdge.ID == "" {
		newEdge.ID = uuid.NewString()
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE edges SET superseded_at = ?, superseded_by = ? WHERE id = ? AND superseded_at IS NULL
	`, now.Format(time.RFC3339Nano), newEdge.ID, edgeID)
	if err != nil {
		return Edge{}, errkind.Wrap("mark edge superseded", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Edge{}, errkind.Wrap("supersede edge", fmt.Errorf("%w: edge %s not found or already superseded", errkind.ErrNotFound, edgeID))
	}

	if newEdge.ValidFrom.IsZero() {
		newEdge.ValidFrom = now
	}
	newEdge.RecordedAt = now
	if newEdge.HalfLifeDays <= 0 {
		newEdge.HalfLifeDays = 90
	}
	if newEdge.Viveka == 0 {
		newEdge.Viveka = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO edges (id, source, target, relationship, weight, pramana, viveka, valid_from, valid_to, recorded_at, superseded_at, superseded_by, half_life_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, '', ?)
	`, newEdge.ID, newEdge.Source, newEdge.Target, newEdge.Relationship, newEdge.Weight, newEdge.Pramana, newEdge.Viveka,
		newEdge.ValidFrom.Format(time.RFC3339Nano), formatNullableTime(newEdge.ValidTo), newEdge.RecordedAt.Format(time.RFC3339Nano), newEdge.HalfLifeDays)
	if err != nil {
		return Edge{}, errkind.Wrap("insert superseding edge", err)
	}

	if err := tx.Commit(); err != nil {
		return Edge{}, errkind.Wrap("commit supersede tx", err)
	}
	return newEdge, nil
}

// Expire sets valid-to = at on edgeID.
func (s *Store) Expire(ctx context.Context, edgeID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE edges SET valid_to = ? WHERE id = ?`, at.Format(time.RFC3339Nano), edgeID)
	if err != nil {
		return errkind.Wrap("expire edge", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errkind.Wrap("expire edge", fmt.Errorf("%w: edge %s", errkind.ErrNotFound, edgeID))
	}
	return nil
}

// QueryAt returns every edge active at t: valid-from <= t <= (valid-to ??
// infinity), and not superseded by t.
func (s *Store) QueryAt(ctx context.Context, t time.Time) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, target, relationship, weight, pramana, viveka, valid_from, valid_to, recorded_at, superseded_at, superseded_by, half_life_days
		FROM edges
		WHERE valid_from <= ?
		  AND (valid_to IS NULL OR valid_to >= ?)
		  AND (superseded_at IS NULL OR superseded_at > ?)
	`, t.Format(time.RFC3339Nano), t.Format(time.RFC3339Nano), t.Format(time.RFC3339Nano))
	if err != nil {
		return nil, errkind.Wrap("query-at edges", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// History returns every row (including superseded ones) for a given
// source/target/relationship triple, in recorded-at order.
func (s *Store) History(ctx context.Context, source, target, relationship string) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, target, relationship, weight, pramana, viveka, valid_from, valid_to, recorded_at, superseded_at, superseded_by, half_life_days
		FROM edges
		WHERE source = ? AND target = ? AND relationship = ?
		ORDER BY recorded_at ASC
	`, source, target, relationship)
	if err != nil {
		return nil, errkind.Wrap("edge history", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// Compact collapses superseded chains into a single canonical current row
// per (source, target, relationship), archiving every superseded row whose
// valid-from is more than maxAgeDays in the past. The most recently recorded non-superseded row in each chain is kept
// live; everything else moves to edges_archive.
func (s *Store) Compact(ctx context.Context, maxAgeDays float64) (int, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(maxAgeDays * float64(24*time.Hour)))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, target, relationship, weight, pramana, viveka, valid_from, valid_to, recorded_at, superseded_at, superseded_by, half_life_days
		FROM edges
		WHERE superseded_at IS NOT NULL AND valid_from < ?
	`, cutoff.Format(time.RFC3339Nano))
	if err != nil {
		return 0, errkind.Wrap("compact scan", err)
	}
	stale, err := scanEdges(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errkind.Wrap("begin compact tx", err)
	}
	defer tx.Rollback()

	archived := 0
	for _, e := range stale {
		payload := fmt.Sprintf(`{"weight":%g,"pramana":%q,"viveka":%g,"valid_from":%q,"half_life_days":%g}`,
			e.Weight, e.Pramana, e.Viveka, e.ValidFrom.Format(time.RFC3339Nano), e.HalfLifeDays)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO edges_archive (id, source, target, relationship, recorded_at, superseded_at, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.Source, e.Target, e.Relationship, e.RecordedAt.Format(time.RFC3339Nano), formatNullableTime(e.SupersededAt), payload)
		if err != nil {
			return 0, errkind.Wrap("archive edge", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, e.ID); err != nil {
			return 0, errkind.Wrap("delete archived edge", err)
		}
		archived++
	}
	if err := tx.Commit(); err != nil {
		return 0, errkind.Wrap("commit compact tx", err)
	}
	return archived, nil
}

// Neighbors returns every currently-active edge touching node, in either
// direction, for use by community detection and PageRank.
func (s *Store) Neighbors(ctx context.Context, node string, at time.Time) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, target, relationship, weight, pramana, viveka, valid_from, valid_to, recorded_at, superseded_at, superseded_by, half_life_days
		FROM edges
		WHERE (source = ? OR target = ?)
		  AND valid_from <= ?
		  AND (valid_to IS NULL OR valid_to >= ?)
		  AND (superseded_at IS NULL OR superseded_at > ?)
	`, node, node, at.Format(time.RFC3339Nano), at.Format(time.RFC3339Nano), at.Format(time.RFC3339Nano))
	if err != nil {
		return nil, errkind.Wrap("neighbor edges", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// AllActiveEdges returns every edge active at t, used as the full graph
// snapshot for community detection and PageRank.
func (s *Store) AllActiveEdges(ctx context.Context, at time.Time) ([]Edge, error) {
	return s.QueryAt(ctx, at)
}

// SavePageRank persists a node's PageRank score.
func (s *Store) SavePageRank(ctx context.Context, nodeID string, score float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pagerank (node_id, score, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (node_id) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at
	`, nodeID, score, time.Now().UTC().Format(time.RFC3339Nano))
	return errkind.Wrap("save pagerank", err)
}

// PageRankScores returns every persisted PageRank score.
func (s *Store) PageRankScores(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT node_id, score FROM pagerank`)
	if err != nil {
		return nil, errkind.Wrap("load pagerank", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, errkind.Wrap("scan pagerank row", err)
		}
		out[id] = score
	}
	return out, errkind.Wrap("iterate pagerank rows", rows.Err())
}

func scanEdges(rows *sql.Rows) ([]Edge, error) {
	var edges []Edge
	for rows.Next() {
		var e Edge
		var validFrom, recordedAt string
		var validTo, supersededAt sql.NullString
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Relationship, &e.Weight, &e.Pramana, &e.Viveka,
			&validFrom, &validTo, &recordedAt, &supersededAt, &e.SupersededBy, &e.HalfLifeDays); err != nil {
			return nil, errkind.Wrap("scan edge row", err)
		}
		e.ValidFrom = sqlite.ParseTimeString(validFrom)
		e.RecordedAt = sqlite.ParseTimeString(recordedAt)
		e.ValidTo = sqlite.ParseNullableTimeString(validTo)
		e.SupersededAt = sqlite.ParseNullableTimeString(supersededAt)
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].RecordedAt.Before(edges[j].RecordedAt) })
	return edges, errkind.Wrap("iterate edge rows", rows.Err())
}

func formatNullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
