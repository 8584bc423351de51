package hybrid

import "github.com/sriinnu/chitragupta/internal/config"

// Acceptance is the only feedback signal the spec commits to: the set of
// document ids a user actually accepted out of a result set, paired with
// which signal(s) surfaced each one. What rule turns that into a weight
// nudge is an open question the spec leaves unresolved (spec.md §9) — so
// WeightLearner is an interface callers may implement, and the default is a
// pass-through that records nothing and never changes the weights.
type Acceptance struct {
	Query     string
	Accepted  []string            // document ids the user accepted
	SignalHit map[string][]string // signal name -> document ids it ranked
}

// WeightLearner adjusts HybridWeights over time from observed acceptance.
// Updates must be atomic: a reader of Weights() never observes a
// half-updated vector.
type WeightLearner interface {
	// Weights returns the current weight vector to fuse with.
	Weights() config.HybridWeights

	// Observe records one acceptance event. Implementations decide whether
	// and how to nudge the weight vector; the default NoopLearner ignores
	// every observation.
	Observe(a Acceptance)
}

// NoopLearner always returns a fixed weight vector and ignores every
// Observe call. It is the default until a concrete online-learning rule is
// specified.
type NoopLearner struct {
	weights config.HybridWeights
}

// NewNoopLearner wraps a fixed weight vector.
func NewNoopLearner(weights config.HybridWeights) *NoopLearner {
	return &NoopLearner{weights: weights.Clamp()}
}

func (n *NoopLearner) Weights() config.HybridWeights { return n.weights }
func (n *NoopLearner) Observe(Acceptance)             {}
