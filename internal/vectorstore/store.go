// Package vectorstore is the single shared embedding store Hybrid Search's
// vector signal and the Consolidation Indexer both read and write. Vectors
// are stored as a flat float32 blob and scored by brute-force cosine
// similarity in process; the corpus sizes this module targets (turns,
// summaries, memory entries for one user) never justify an ANN index.
package vectorstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"
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

CREATE TABLE IF NOT EXISTS embeddings (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	ref_id TEXT NOT NULL,
	text TEXT NOT NULL,
	vector BLOB NOT NULL,
	dims INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_embeddings_kind ON embeddings(kind);
CREATE INDEX IF NOT EXISTS idx_embeddings_ref ON embeddings(ref_id);
`

// Kind identifies what an embedding was computed over: raw turn content, a
// memory entry, or one of the three consolidation summary levels.
type Kind string

const (
	KindTurn           Kind = "turn"
	KindMemoryEntry    Kind = "memory_entry"
	KindDailySummary   Kind = "daily_summary"
	KindMonthlySummary Kind = "monthly_summary"
	KindYearlySummary  Kind = "yearly_summary"
)

// Match is a scored embedding hit.
type Match struct {
	ID    string
	Kind  Kind
	RefID string
	Text  string
	Score float64
}

// Store is the SQLite-backed vector store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the vector store rooted at home.
func Open(ctx context.Context, home *layout.Home) (*Store, error) {
	if err := home.EnsureDirs(); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", storage.SQLiteConnString(home.VectorsDB(), false))
	if err != nil {
		return nil, errkind.Wrap("open vectors db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errkind.Wrap("enable wal", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errkind.Wrap("init vector schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "vector_schema_version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Upsert stores or replaces the embedding for id.
func (s *Store) Upsert(ctx context.Context, id string, kind Kind, refID, text string, vector []float32) error {
	blob := encodeVector(vector)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (id, kind, ref_id, text, vector, dims, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET kind = excluded.kind, ref_id = excluded.ref_id,
			text = excluded.text, vector = excluded.vector, dims = excluded.dims, created_at = excluded.created_at
	`, id, string(kind), refID, text, blob, len(vector), time.Now().UTC().Format(time.RFC3339Nano))
	return errkind.Wrap("upsert embedding", err)
}

// Delete removes an embedding by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE id = ?`, id)
	return errkind.Wrap("delete embedding", err)
}

// Query returns the top limit matches for queryVector among embeddings of
// kind (or every kind, if kind is ""), ranked by cosine similarity.
func (s *Store) Query(ctx context.Context, queryVector []float32, kind Kind, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, kind, ref_id, text, vector FROM embeddings`
	args := []interface{}{}
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errkind.Wrap("query embeddings", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var id, k, refID, text string
		var blob []byte
		if err := rows.Scan(&id, &k, &refID, &text, &blob); err != nil {
			return nil, errkind.Wrap("scan embedding row", err)
		}
		vec := decodeVector(blob)
		score := cosineSimilarity(queryVector, vec)
		matches = append(matches, Match{ID: id, Kind: Kind(k), RefID: refID, Text: text, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errkind.Wrap("iterate embedding rows", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func encodeVector(v []float32) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(len(v) * 4)
	for _, f := range v {
		_ = binary.Write(buf, binary.LittleEndian, f)
	}
	return buf.Bytes()
}

func decodeVector(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	r := bytes.NewReader(b)
	for i := 0; i < n; i++ {
		_ = binary.Read(r, binary.LittleEndian, &out[i])
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
