// Package memoryfile implements the memory-file write path: per-scope
// markdown files (global, project, agent) serialised through a bounded
// mailbox per scope, truncated to MAX_MEMORY_SIZE preserving the header,
// and invalidated in a read-through cache when fsnotify reports an external
// edit. Session-scoped memory has no backing file here - per the filesystem
// layout, it is stored inside the session record itself.
package memoryfile

import (
	"fmt"

	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/session"
)

// MaxSize is the spec's MAX_MEMORY_SIZE: a memory file exceeding this on
// write has its oldest entries truncated, preserving the header.
const MaxSize = 500 * 1024

// PathFor resolves scope to its backing file. Session scope has no backing
// file and resolves to errkind.ErrInvariant - callers route session-scoped
// memory writes to the session store instead.
func PathFor(home *layout.Home, scope session.MemoryScope) (string, error) {
	switch scope.Variant {
	case session.ScopeGlobal:
		return home.GlobalMemoryFile(), nil
	case session.ScopeProject:
		return home.ProjectMemoryFile(scope.Key), nil
	case session.ScopeAgent:
		return home.AgentMemoryFile(scope.Key), nil
	default:
		return "", fmt.Errorf("memoryfile: scope %q has no backing file: %w", scope.Variant, errkind.ErrInvariant)
	}
}

// DefaultHeader returns the title line a newly created memory file opens
// with.
func DefaultHeader(scope session.MemoryScope) string {
	switch scope.Variant {
	case session.ScopeGlobal:
		return "# Global Memory"
	case session.ScopeProject:
		return "# Project Memory"
	case session.ScopeAgent:
		return "# Agent Memory"
	default:
		return "# Memory"
	}
}

func scopeKey(scope session.MemoryScope) string {
	return string(scope.Variant) + "\x00" + scope.Key
}
