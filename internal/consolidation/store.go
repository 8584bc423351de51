package consolidation

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
CREATE TABLE IF NOT EXISTS consolidation_summaries (
	level TEXT NOT NULL,
	period_key TEXT NOT NULL,
	project TEXT NOT NULL DEFAULT '',
	markdown TEXT NOT NULL,
	indexed_text TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	PRIMARY KEY (level, period_key, project)
);
CREATE INDEX IF NOT EXISTS idx_consolidation_period ON consolidation_summaries(level, period_key);
`

// Store persists written Summary records so month rollups can read back
// their constituent days and year rollups their constituent months without
// re-parsing markdown off disk.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the consolidation summary index, sharing
// the per-agent database file other agent-scoped stores use.
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
		return nil, errkind.Wrap("init consolidation schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "consolidation_schema_version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already-open connection, for callers sharing one across
// stores.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put persists or replaces a Summary, keyed by (level, period, project).
func (s *Store) Put(ctx context.Context, sum Summary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consolidation_summaries (level, period_key, project, markdown, indexed_text, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (level, period_key, project) DO UPDATE SET
			markdown = excluded.markdown, indexed_text = excluded.indexed_text, generated_at = excluded.generated_at
	`, string(sum.Level), sum.PeriodKey, sum.Project, sum.Markdown, sum.IndexedText, sum.GeneratedAt.UTC().Format(time.RFC3339Nano))
	return errkind.Wrap("put consolidation summary", err)
}

// Get loads one summary by its key, returning errkind.ErrNotFound when
// absent.
func (s *Store) Get(ctx context.Context, level SummaryLevel, periodKey, project string) (Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT level, period_key, project, markdown, indexed_text, generated_at
		FROM consolidation_summaries WHERE level = ? AND period_key = ? AND project = ?
	`, string(level), periodKey, project)
	return scanSummary(row)
}

// ByPeriodPrefix returns every summary of level whose period key begins
// with prefix (e.g. level=day, prefix="2026-07" selects every day of July
// 2026), restricted to project, ordered by period key.
func (s *Store) ByPeriodPrefix(ctx context.Context, level SummaryLevel, prefix, project string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT level, period_key, project, markdown, indexed_text, generated_at
		FROM consolidation_summaries
		WHERE level = ? AND project = ? AND period_key LIKE ?
		ORDER BY period_key ASC
	`, string(level), project, prefix+"%")
	if err != nil {
		return nil, errkind.Wrap("query consolidation summaries", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummaryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, errkind.Wrap("iterate consolidation summaries", rows.Err())
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row *sql.Row) (Summary, error) {
	return scanAny(row)
}

func scanSummaryRows(rows *sql.Rows) (Summary, error) {
	return scanAny(rows)
}

func scanAny(sc scanner) (Summary, error) {
	var sum Summary
	var level, generatedAt string
	if err := sc.Scan(&level, &sum.PeriodKey, &sum.Project, &sum.Markdown, &sum.IndexedText, &generatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Summary{}, errkind.Wrap("get consolidation summary", err)
		}
		return Summary{}, errkind.Wrap("scan consolidation summary", err)
	}
	sum.Level = SummaryLevel(level)
	sum.GeneratedAt = sqlite.ParseTimeString(generatedAt)
	return sum, nil
}
