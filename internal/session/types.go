// Package session implements the Session Store: an append-ordered,
// branchable record of conversations kept in a dual representation -
// markdown files as the source of truth for raw text, and a SQLite index
// for listing, ordering, and full-text search.
package session

import "time"

// Session is a single conversation: a sequence of Turns plus bookkeeping
// metadata. Turns are appended, never mutated.
type Session struct {
	ID          string
	Project     string
	Title       string
	Agent       string
	Model       string
	ParentID    string
	BranchName  string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TotalCost   float64
	TotalTokens int64
	Turns       []Turn
}

// Turn is one exchange in a session: a monotonically-ordered, immutable
// record of either a user or assistant message.
type Turn struct {
	Ordinal   int
	Role      string // "user" or "assistant"
	Content   string
	Agent     string
	Model     string
	ToolCalls []ToolCall
	CreatedAt time.Time
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall records a single tool invocation belonging to an assistant turn.
type ToolCall struct {
	Name    string
	Input   string // raw JSON
	Result  string
	IsError bool
}

// SessionMeta is the lightweight summary list() returns: the Session's
// identity, lineage, tags, timestamps and turn count. Turn bodies and the
// cost/token totals are not included.
type SessionMeta struct {
	ID         string
	Project    string
	Title      string
	Agent      string
	Model      string
	ParentID   string
	BranchName string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	TurnCount  int
}

// Tree is a session-parent-child tree. When a project has more than one
// root session, Root is a synthetic node (ID == "") wrapping every real
// root as a child.
type Tree struct {
	Root *TreeNode
}

// TreeNode is one session's position in a Tree.
type TreeNode struct {
	Meta     SessionMeta
	Children []*TreeNode
}

// CreateOptions configures a new session.
type CreateOptions struct {
	Project string
	Title   string
	Agent   string
	Model   string
	Tags    []string
}

// MemoryScope identifies which memory file a read or write targets.
type MemoryScope struct {
	Variant ScopeVariant
	Key     string // project path, agent id, or session id; empty for global
}

// ScopeVariant is the kind of memory scope.
type ScopeVariant string

const (
	ScopeGlobal  ScopeVariant = "global"
	ScopeProject ScopeVariant = "project"
	ScopeAgent   ScopeVariant = "agent"
	ScopeSession ScopeVariant = "session"
)
