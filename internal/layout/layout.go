// Package layout resolves paths under the memory subsystem's home
// directory: per-day session markdown, day/month/year consolidations,
// per-scope memory files, and the three WAL-mode SQLite databases.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Home is the root directory holding every file this module writes.
type Home struct {
	root string
}

// NewHome wraps root. The directory need not exist yet; callers use
// EnsureDirs before the first write.
func NewHome(root string) *Home {
	return &Home{root: root}
}

// Root returns the home directory path.
func (h *Home) Root() string { return h.root }

// AgentDB, GraphDB, and VectorsDB return the paths of the three WAL-mode
// relational databases.
func (h *Home) AgentDB() string   { return filepath.Join(h.root, "agent.db") }
func (h *Home) GraphDB() string   { return filepath.Join(h.root, "graph.db") }
func (h *Home) VectorsDB() string { return filepath.Join(h.root, "vectors.db") }

// SessionFile returns the path of a session's markdown file:
// sessions/YYYY/MM/session-YYYY-MM-DD-<suffix>.md.
func (h *Home) SessionFile(day time.Time, suffix string) string {
	return filepath.Join(h.root, "sessions",
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", day.Month()),
		fmt.Sprintf("session-%04d-%02d-%02d-%s.md", day.Year(), day.Month(), day.Day(), suffix),
	)
}

// DayFile returns the path of a daily consolidation: days/YYYY/MM/DD.md.
func (h *Home) DayFile(day time.Time) string {
	return filepath.Join(h.root, "days",
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", day.Month()),
		fmt.Sprintf("%02d.md", day.Day()),
	)
}

// MonthFile returns the path of a monthly consolidation: months/YYYY/MM.md.
func (h *Home) MonthFile(month time.Time) string {
	return filepath.Join(h.root, "months",
		fmt.Sprintf("%04d", month.Year()),
		fmt.Sprintf("%02d.md", month.Month()),
	)
}

// YearFile returns the path of a yearly consolidation: years/YYYY.md.
func (h *Home) YearFile(year int) string {
	return filepath.Join(h.root, "years", fmt.Sprintf("%04d.md", year))
}

// ProjectMonthFile returns a per-project monthly consolidation path:
// months/YYYY/<projectHash>/MM.md.
func (h *Home) ProjectMonthFile(month time.Time, projectHash string) string {
	return filepath.Join(h.root, "months",
		fmt.Sprintf("%04d", month.Year()), projectHash,
		fmt.Sprintf("%02d.md", month.Month()),
	)
}

// ProjectYearFile returns a per-project yearly consolidation path:
// years/<projectHash>/YYYY.md.
func (h *Home) ProjectYearFile(year int, projectHash string) string {
	return filepath.Join(h.root, "years", projectHash, fmt.Sprintf("%04d.md", year))
}

// GlobalMemoryFile returns memory/global.md.
func (h *Home) GlobalMemoryFile() string {
	return filepath.Join(h.root, "memory", "global.md")
}

// ProjectMemoryFile returns memory/projects/<hash>/project.md for a project
// identified by projectHash (a stable content hash of the project path, not
// the path itself, so memory survives a repository move).
func (h *Home) ProjectMemoryFile(projectHash string) string {
	return filepath.Join(h.root, "memory", "projects", projectHash, "project.md")
}

// AgentMemoryFile returns memory/agents/<id>.md.
func (h *Home) AgentMemoryFile(agentID string) string {
	return filepath.Join(h.root, "memory", "agents", agentID+".md")
}

// CheckpointDir returns the directory holding a session's checkpoint
// snapshots: checkpoints/<sessionID>/.
func (h *Home) CheckpointDir(sessionID string) string {
	return filepath.Join(h.root, "checkpoints", sessionID)
}

// EnsureDirs creates the fixed top-level directories this home writes into;
// dated, per-project and checkpoint subdirectories are not created here. It
// is safe to call repeatedly.
func (h *Home) EnsureDirs() error {
	for _, dir := range []string{
		filepath.Join(h.root, "sessions"),
		filepath.Join(h.root, "days"),
		filepath.Join(h.root, "months"),
		filepath.Join(h.root, "years"),
		filepath.Join(h.root, "memory"),
		filepath.Join(h.root, "memory", "projects"),
		filepath.Join(h.root, "memory", "agents"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("layout: create %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureParent creates the parent directory of path, for the dated
// subdirectories (sessions/YYYY/MM, days/YYYY/MM) that EnsureDirs does not
// pre-create since the year/month aren't known up front.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("layout: create %s: %w", dir, err)
	}
	return nil
}
