package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
)

// DefaultMaxCheckpoints is how many snapshots a session retains when a Store
// is not given an explicit override.
const DefaultMaxCheckpoints = 5

// Store saves and loads per-session checkpoints under home's checkpoints/
// tree, one subdirectory per session.
type Store struct {
	home           *layout.Home
	maxCheckpoints int
}

// NewStore creates a Store retaining at most maxCheckpoints per session.
// A non-positive maxCheckpoints falls back to DefaultMaxCheckpoints.
func NewStore(home *layout.Home, maxCheckpoints int) *Store {
	if maxCheckpoints <= 0 {
		maxCheckpoints = DefaultMaxCheckpoints
	}
	return &Store{home: home, maxCheckpoints: maxCheckpoints}
}

// Save writes a new checkpoint for sessionID, then prunes the oldest
// snapshots beyond maxCheckpoints. The write is atomic: data lands in a
// temp file in the same directory, then is renamed into place, so a crash
// mid-write never leaves a partially-written checkpoint visible to Load.
func (s *Store) Save(ctx context.Context, sessionID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.home.CheckpointDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errkind.Wrap("create checkpoint dir", err)
	}

	now := time.Now().UTC()
	env := envelope{SessionID: sessionID, CreatedAt: now, Checksum: checksum(data), Data: data}
	raw, err := json.Marshal(env)
	if err != nil {
		return errkind.Wrap("marshal checkpoint", err)
	}

	finalPath := filepath.Join(dir, fileName(now))
	tmp, err := os.CreateTemp(dir, "checkpoint.tmp.*")
	if err != nil {
		return errkind.Wrap("create temp checkpoint", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(raw); err != nil {
		return errkind.Wrap("write checkpoint", err)
	}
	if err := tmp.Close(); err != nil {
		return errkind.Wrap("close checkpoint", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return errkind.Wrap("commit checkpoint", err)
	}

	return s.prune(dir)
}

// Load returns the most recent valid checkpoint for sessionID. A checkpoint
// that fails to parse or whose checksum doesn't match its data is skipped
// and Load falls back to the next newest; if every checkpoint is corrupted
// or none exist, it returns errkind.ErrNotFound.
func (s *Store) Load(ctx context.Context, sessionID string) (Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}
	dir := s.home.CheckpointDir(sessionID)
	names, err := s.sortedNames(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, fmt.Errorf("no checkpoints for session %s: %w", sessionID, errkind.ErrNotFound)
		}
		return Checkpoint{}, errkind.Wrap("list checkpoints", err)
	}

	for i := len(names) - 1; i >= 0; i-- {
		path := filepath.Join(dir, names[i])
		cp, err := loadOne(path)
		if err != nil {
			continue
		}
		return cp, nil
	}
	return Checkpoint{}, fmt.Errorf("no valid checkpoints for session %s: %w", sessionID, errkind.ErrNotFound)
}

// Delete removes every checkpoint for sessionID.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.home.CheckpointDir(sessionID)
	if err := os.RemoveAll(dir); err != nil {
		return errkind.Wrap("delete checkpoints", err)
	}
	return nil
}

func loadOne(path string) (Checkpoint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, errkind.Wrapf(err, "read checkpoint %s", path)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Checkpoint{}, fmt.Errorf("parse checkpoint %s: %w", path, errkind.ErrCorruption)
	}
	if checksum(env.Data) != env.Checksum {
		return Checkpoint{}, fmt.Errorf("checksum mismatch in %s: %w", path, errkind.ErrCorruption)
	}
	return Checkpoint{SessionID: env.SessionID, Data: env.Data, CreatedAt: env.CreatedAt}, nil
}

func (s *Store) sortedNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// prune removes the oldest checkpoints beyond maxCheckpoints. It does not
// validate checkpoints before counting them - a corrupted checkpoint still
// occupies a retention slot, matching the spec's "older ones pruned on
// save" rule rather than "oldest valid ones".
func (s *Store) prune(dir string) error {
	names, err := s.sortedNames(dir)
	if err != nil {
		return errkind.Wrap("list checkpoints for prune", err)
	}
	excess := len(names) - s.maxCheckpoints
	for i := 0; i < excess; i++ {
		if err := os.Remove(filepath.Join(dir, names[i])); err != nil && !os.IsNotExist(err) {
			return errkind.Wrap("prune checkpoint", err)
		}
	}
	return nil
}
