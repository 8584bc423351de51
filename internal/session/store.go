package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/google/uuid"
	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/lockfile"
	"github.com/sriinnu/chitragupta/internal/storage"
	"github.com/sriinnu/chitragupta/internal/storage/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	title TEXT NOT NULL,
	agent TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	branch_name TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	total_cost REAL NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	turn_count INTEGER NOT NULL DEFAULT 0,
	markdown_path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project);
CREATE INDEX IF NOT EXISTS idx_sessions_parent ON sessions(parent_id);

CREATE VIRTUAL TABLE IF NOT EXISTS turns_fts USING fts5(
	session_id UNINDEXED,
	ordinal UNINDEXED,
	content
);
`

// Store is the SQLite-backed index and markdown-file writer for sessions.
// Markdown is the source of truth for turn content; SQLite exists purely to
// make list/tree/search fast without re-reading every file on disk.
type Store struct {
	db   *sql.DB
	home *layout.Home
}

// Open opens (creating if needed) the session store rooted at home, ensuring
// the backing schema and directory tree exist.
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
		return nil, errkind.Wrap("init session schema", err)
	}

	versions := sqlite.NewConfigStore(db)
	if err := versions.Set(ctx, "session_schema_version", "1"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, home: home}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create starts a new root session and persists its initial (empty)
// markdown file and index row. Branch creates branched sessions.
func (s *Store) Create(ctx context.Context, opts CreateOptions) (Session, error) {
	return s.create(ctx, opts, "", "")
}

// Branch creates a new session whose parent is parentID, deep-copying
// parent's turns up to and including upToOrdinal (0 means all of them). The
// new session carries a proportional fraction of the parent's cost/tokens
// and a "branch:<name>" tag. It fails if upToOrdinal exceeds the parent's
// turn count.
func (s *Store) Branch(ctx context.Context, parentID, branchName string, upToOrdinal int, opts CreateOptions) (Session, error) {
	if parentID == "" {
		return Session{}, errkind.Wrap("branch session", fmt.Errorf("%w: parent id required", errkind.ErrInvariant))
	}
	parent, err := s.Load(ctx, parentID)
	if err != nil {
		return Session{}, err
	}
	if upToOrdinal <= 0 || upToOrdinal > len(parent.Turns) {
		if upToOrdinal > len(parent.Turns) {
			return Session{}, errkind.Wrap("branch session", fmt.Errorf("%w: up-to-ordinal %d exceeds parent turn count %d", errkind.ErrInvariant, upToOrdinal, len(parent.Turns)))
		}
		upToOrdinal = len(parent.Turns)
	}

	copied := make([]Turn, upToOrdinal)
	copy(copied, parent.Turns[:upToOrdinal])

	opts.Tags = append(append([]string(nil), opts.Tags...), "branch:"+branchName)

	branch, err := s.create(ctx, opts, parentID, branchName)
	if err != nil {
		return Session{}, err
	}

	fraction := 1.0
	if len(parent.Turns) > 0 {
		fraction = float64(upToOrdinal) / float64(len(parent.Turns))
	}
	branch.Turns = copied
	branch.TotalCost = parent.TotalCost * fraction
	branch.TotalTokens = int64(float64(parent.TotalTokens) * fraction)
	branch.UpdatedAt = time.Now().UTC()

	path, err := s.markdownPath(ctx, branch.ID)
	if err != nil {
		return Session{}, err
	}
	if err := writeMarkdownFile(path, branch); err != nil {
		return Session{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET total_cost = ?, total_tokens = ?, turn_count = ?, updated_at = ? WHERE id = ?
	`, branch.TotalCost, branch.TotalTokens, len(branch.Turns), branch.UpdatedAt.Format(time.RFC3339Nano), branch.ID); err != nil {
		return Session{}, errkind.Wrap("update branch totals", err)
	}
	for _, t := range copied {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO turns_fts (session_id, ordinal, content) VALUES (?, ?, ?)`, branch.ID, t.Ordinal, t.Content); err != nil {
			return Session{}, errkind.Wrap("index branched turn", err)
		}
	}
	return branch, nil
}

func (s *Store) create(ctx context.Context, opts CreateOptions, parentID, branchName string) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:         uuid.NewString(),
		Project:    opts.Project,
		Title:      opts.Title,
		Agent:      opts.Agent,
		Model:      opts.Model,
		ParentID:   parentID,
		BranchName: branchName,
		Tags:       append([]string(nil), opts.Tags...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	path := s.home.SessionFile(now, sess.ID[:8])
	if err := layout.EnsureParent(path); err != nil {
		return Session{}, err
	}
	if err := writeMarkdownFile(path, sess); err != nil {
		return Session{}, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, project, title, agent, model, parent_id, branch_name, tags, created_at, updated_at, total_cost, total_tokens, turn_count, markdown_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?)
	`, sess.ID, sess.Project, sess.Title, sess.Agent, sess.Model, sess.ParentID, sess.BranchName, sqlite.FormatJSONStringArray(sess.Tags),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), path)
	if err != nil {
		return Session{}, errkind.Wrap("insert session", err)
	}
	return sess, nil
}

// Append adds a turn to an existing session, serializing concurrent appends
// to the same session's markdown file with an exclusive file lock.
func (s *Store) Append(ctx context.Context, sessionID string, turn Turn) (Session, error) {
	path, err := s.markdownPath(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return Session{}, errkind.Wrap("open session file", err)
	}
	defer f.Close()

	if err := lockfile.FlockExclusiveBlocking(f); err != nil {
		return Session{}, errkind.Wrap("lock session file", err)
	}
	defer lockfile.FlockUnlock(f)

	sess, err := readMarkdownFile(path)
	if err != nil {
		return Session{}, err
	}

	turn.Ordinal = len(sess.Turns) + 1
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	sess.Turns = append(sess.Turns, turn)
	sess.UpdatedAt = turn.CreatedAt

	if err := f.Truncate(0); err != nil {
		return Session{}, errkind.Wrap("truncate session file", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return Session{}, errkind.Wrap("seek session file", err)
	}
	if _, err := f.WriteString(WriteMarkdown(sess)); err != nil {
		return Session{}, errkind.Wrap("write session file", err)
	}

	if err := s.indexTurn(ctx, sess, turn); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *Store) indexTurn(ctx context.Context, sess Session, turn Turn) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET updated_at = ?, total_cost = ?, total_tokens = ?, turn_count = ?, tags = ?
		WHERE id = ?
	`, sess.UpdatedAt.Format(time.RFC3339Nano), sess.TotalCost, sess.TotalTokens, len(sess.Turns), sqlite.FormatJSONStringArray(sess.Tags), sess.ID)
	if err != nil {
		return errkind.Wrap("update session row", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO turns_fts (session_id, ordinal, content) VALUES (?, ?, ?)
	`, sess.ID, turn.Ordinal, turn.Content)
	return errkind.Wrap("index turn", err)
}

// Load reads a session's full content, preferring the markdown file (the
// source of truth) and falling back to the index row only to resolve its path.
func (s *Store) Load(ctx context.Context, sessionID string) (Session, error) {
	path, err := s.markdownPath(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	return readMarkdownFile(path)
}

// Delete removes a session's markdown file and index row. It does not
// reparent children; callers that want to keep a branch's history should
// call Delete only on leaf sessions.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	path, err := s.markdownPath(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns_fts WHERE session_id = ?`, sessionID); err != nil {
		return errkind.Wrap("delete turn index", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return errkind.Wrap("delete session row", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errkind.Wrap("delete session file", err)
	}
	return nil
}

// List returns metadata for every session in project, most recently updated
// first. An empty project lists across all projects.
func (s *Store) List(ctx context.Context, project string) ([]SessionMeta, error) {
	query := `SELECT id, project, title, agent, model, parent_id, branch_name, tags, created_at, updated_at, turn_count FROM sessions`
	args := []interface{}{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errkind.Wrap("list sessions", err)
	}
	defer rows.Close()

	var metas []SessionMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, errkind.Wrap("iterate sessions", rows.Err())
}

// Tree builds the parent/child session tree for project. When more than one
// root session exists, Root is a synthetic node (Meta.ID == "") wrapping
// every real root.
func (s *Store) Tree(ctx context.Context, project string) (Tree, error) {
	metas, err := s.List(ctx, project)
	if err != nil {
		return Tree{}, err
	}

	nodes := make(map[string]*TreeNode, len(metas))
	for _, m := range metas {
		nodes[m.ID] = &TreeNode{Meta: m}
	}

	var roots []*TreeNode
	for _, m := range metas {
		node := nodes[m.ID]
		if m.ParentID == "" {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[m.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortTree := func(children []*TreeNode) {
		sort.Slice(children, func(i, j int) bool {
			return children[i].Meta.CreatedAt.Before(children[j].Meta.CreatedAt)
		})
	}
	for _, node := range nodes {
		sortTree(node.Children)
	}

	if len(roots) == 1 {
		return Tree{Root: roots[0]}, nil
	}
	sortTree(roots)
	return Tree{Root: &TreeNode{Children: roots}}, nil
}

// SearchTurns runs a lexical FTS5 match over indexed turn content and
// returns matching session ids in rank order. It is the lexical signal
// Hybrid Search fuses with vector and graph results.
func (s *Store) SearchTurns(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id FROM turns_fts WHERE turns_fts MATCH ? ORDER BY rank LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, errkind.Wrap("search turns", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errkind.Wrap("scan turn match", err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, errkind.Wrap("iterate turn matches", rows.Err())
}

func (s *Store) markdownPath(ctx context.Context, sessionID string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `SELECT markdown_path FROM sessions WHERE id = ?`, sessionID).Scan(&path)
	if err != nil {
		return "", errkind.Wrap("load session path", err)
	}
	return path, nil
}

func scanMeta(rows *sql.Rows) (SessionMeta, error) {
	var m SessionMeta
	var tagsJSON, createdAt, updatedAt string
	if err := rows.Scan(&m.ID, &m.Project, &m.Title, &m.Agent, &m.Model, &m.ParentID, &m.BranchName, &tagsJSON, &createdAt, &updatedAt, &m.TurnCount); err != nil {
		return SessionMeta{}, errkind.Wrap("scan session row", err)
	}
	m.Tags = sqlite.ParseJSONStringArray(tagsJSON)
	m.CreatedAt = sqlite.ParseTimeString(createdAt)
	m.UpdatedAt = sqlite.ParseTimeString(updatedAt)
	return m, nil
}

func writeMarkdownFile(path string, sess Session) error {
	return errkind.Wrap("write session file", os.WriteFile(path, []byte(WriteMarkdown(sess)), 0o644))
}

func readMarkdownFile(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, errkind.Wrap("read session file", errkind.ErrNotFound)
		}
		return Session{}, errkind.Wrap("read session file", err)
	}
	sess, err := ParseMarkdown(string(data))
	if err != nil {
		return Session{}, err
	}
	for _, t := range sess.Turns {
		if t.Ordinal == 0 {
			return Session{}, errkind.Wrap("parse session file", fmt.Errorf("%w: turn missing ordinal", errkind.ErrCorruption))
		}
	}
	return sess, nil
}
