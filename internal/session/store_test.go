package session_test

import (
	"context"
	"testing"

	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	home := layout.NewHome(t.TempDir())
	store, err := session.Open(context.Background(), home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, session.CreateOptions{Project: "proj-a", Title: "first session", Agent: "claude"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	loaded, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "first session", loaded.Title)
	assert.Empty(t, loaded.Turns)
}

func TestAppendAccumulatesTurnsInOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, session.CreateOptions{Project: "proj-a", Title: "conversation"})
	require.NoError(t, err)

	_, err = store.Append(ctx, sess.ID, session.Turn{Role: session.RoleUser, Content: "hello"})
	require.NoError(t, err)
	updated, err := store.Append(ctx, sess.ID, session.Turn{Role: session.RoleAssistant, Content: "hi there"})
	require.NoError(t, err)

	require.Len(t, updated.Turns, 2)
	assert.Equal(t, 1, updated.Turns[0].Ordinal)
	assert.Equal(t, 2, updated.Turns[1].Ordinal)
	assert.Equal(t, "hello", updated.Turns[0].Content)
}

func TestListFiltersByProjectAndOrdersByUpdated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.Create(ctx, session.CreateOptions{Project: "proj-a", Title: "a"})
	require.NoError(t, err)
	_, err = store.Create(ctx, session.CreateOptions{Project: "proj-b", Title: "b"})
	require.NoError(t, err)

	_, err = store.Append(ctx, a.ID, session.Turn{Role: session.RoleUser, Content: "ping"})
	require.NoError(t, err)

	metas, err := store.List(ctx, "proj-a")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "a", metas[0].Title)
	assert.Equal(t, 1, metas[0].TurnCount)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
}

func TestBranchLinksParent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	parent, err := store.Create(ctx, session.CreateOptions{Project: "proj-a", Title: "root"})
	require.NoError(t, err)
	_, err = store.Append(ctx, parent.ID, session.Turn{Role: session.RoleUser, Content: "first turn"})
	require.NoError(t, err)

	branch, err := store.Branch(ctx, parent.ID, "alt-approach", 0, session.CreateOptions{Project: "proj-a", Title: "branch"})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, branch.ParentID)
	assert.Equal(t, "alt-approach", branch.BranchName)
	assert.Contains(t, branch.Tags, "branch:alt-approach")
	require.Len(t, branch.Turns, 1)

	tree, err := store.Tree(ctx, "proj-a")
	require.NoError(t, err)
	require.NotNil(t, tree.Root)
	assert.Equal(t, parent.ID, tree.Root.Meta.ID)
	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, branch.ID, tree.Root.Children[0].Meta.ID)
	assert.Empty(t, tree.Root.Children[0].Children)
}

func TestBranchRejectsOrdinalBeyondParent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	parent, err := store.Create(ctx, session.CreateOptions{Project: "proj-a", Title: "root"})
	require.NoError(t, err)

	_, err = store.Branch(ctx, parent.ID, "too-far", 5, session.CreateOptions{Project: "proj-a", Title: "branch"})
	require.Error(t, err)
}

func TestTreeWithSingleRootIsNotSynthetic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	root, err := store.Create(ctx, session.CreateOptions{Project: "proj-solo", Title: "only root"})
	require.NoError(t, err)

	tree, err := store.Tree(ctx, "proj-solo")
	require.NoError(t, err)
	assert.Equal(t, root.ID, tree.Root.Meta.ID)
}

func TestDeleteRemovesSessionAndIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, session.CreateOptions{Project: "proj-a", Title: "to delete"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err = store.Load(ctx, sess.ID)
	require.Error(t, err)
}

func TestSearchTurnsMatchesIndexedContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, session.CreateOptions{Project: "proj-a", Title: "searchable"})
	require.NoError(t, err)
	_, err = store.Append(ctx, sess.ID, session.Turn{Role: session.RoleUser, Content: "where is the hybrid search fusion logic"})
	require.NoError(t, err)

	ids, err := store.SearchTurns(ctx, "fusion", 10)
	require.NoError(t, err)
	assert.Contains(t, ids, sess.ID)
}
