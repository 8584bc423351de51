// Package policy defines the external policy-engine contract the core
// calls into on any write that crosses a boundary. No concrete policy logic
// lives in this module; the host application supplies an Engine.
package policy

import "context"

// Decision is the policy engine's verdict on a proposed action.
type Decision struct {
	Allowed bool
	Reason  string
}

// Engine checks whether a write crossing a boundary (consolidation writing
// a summary, a samskara rule firing a side effect, anything the spec calls
// out as needing policy review) is permitted. Pure reads never call this.
type Engine interface {
	Check(ctx context.Context, toolName string, args map[string]interface{}) (Decision, error)
}

// AllowAll is a permissive Engine used when no policy collaborator is
// configured. It never denies anything; callers that want a hard stop in
// that situation should check for nil instead of defaulting to this.
type AllowAll struct{}

func (AllowAll) Check(context.Context, string, map[string]interface{}) (Decision, error) {
	return Decision{Allowed: true}, nil
}
