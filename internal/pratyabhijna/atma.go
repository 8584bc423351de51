package pratyabhijna

import "context"

// AtmaReport is the external tool-mastery self-report collaborator: given a
// project, it returns per-tool usage counts and success rates observed
// outside this module (tool execution itself is out of scope here).
type AtmaReport interface {
	Report(ctx context.Context, project string) (map[string]ToolMastery, error)
}

// NoopAtma is an AtmaReport that always returns an empty report, used when
// no tool-execution collaborator is wired in.
type NoopAtma struct{}

// Report returns an empty tool-mastery map.
func (NoopAtma) Report(ctx context.Context, project string) (map[string]ToolMastery, error) {
	return map[string]ToolMastery{}, nil
}
