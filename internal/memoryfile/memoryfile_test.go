package memoryfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/memoryfile"
	"github.com/sriinnu/chitragupta/internal/session"
)

func TestPathForGlobal(t *testing.T) {
	home := layout.NewHome(t.TempDir())
	path, err := memoryfile.PathFor(home, session.MemoryScope{Variant: session.ScopeGlobal})
	require.NoError(t, err)
	assert.Equal(t, home.GlobalMemoryFile(), path)
}

func TestPathForProject(t *testing.T) {
	home := layout.NewHome(t.TempDir())
	path, err := memoryfile.PathFor(home, session.MemoryScope{Variant: session.ScopeProject, Key: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, home.ProjectMemoryFile("abc123"), path)
}

func TestPathForAgent(t *testing.T) {
	home := layout.NewHome(t.TempDir())
	path, err := memoryfile.PathFor(home, session.MemoryScope{Variant: session.ScopeAgent, Key: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, home.AgentMemoryFile("agent-1"), path)
}

func TestPathForSessionIsInvariantError(t *testing.T) {
	home := layout.NewHome(t.TempDir())
	_, err := memoryfile.PathFor(home, session.MemoryScope{Variant: session.ScopeSession, Key: "sess-1"})
	assert.ErrorIs(t, err, errkind.ErrInvariant)
}

func TestDefaultHeaderVariesByScope(t *testing.T) {
	assert.Equal(t, "# Global Memory", memoryfile.DefaultHeader(session.MemoryScope{Variant: session.ScopeGlobal}))
	assert.Equal(t, "# Project Memory", memoryfile.DefaultHeader(session.MemoryScope{Variant: session.ScopeProject}))
	assert.Equal(t, "# Agent Memory", memoryfile.DefaultHeader(session.MemoryScope{Variant: session.ScopeAgent}))
}
