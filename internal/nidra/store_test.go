package nidra_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/nidra"
)

func TestStoreSaveAndLoad(t *testing.T) {
	home := layout.NewHome(t.TempDir())
	store, err := nidra.Open(context.Background(), home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now().UTC()
	require.NoError(t, store.Save(context.Background(), nidra.Dreaming, now))

	phase, enteredAt, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nidra.Dreaming, phase)
	assert.WithinDuration(t, now, enteredAt, time.Millisecond)
}

func TestStoreLoadEmpty(t *testing.T) {
	home := layout.NewHome(t.TempDir())
	store, err := nidra.Open(context.Background(), home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, _, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSaveOverwrites(t *testing.T) {
	home := layout.NewHome(t.TempDir())
	store, err := nidra.Open(context.Background(), home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := time.Now().UTC()
	require.NoError(t, store.Save(context.Background(), nidra.Listening, now))
	require.NoError(t, store.Save(context.Background(), nidra.DeepSleep, now.Add(time.Hour)))

	phase, _, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nidra.DeepSleep, phase)
}
