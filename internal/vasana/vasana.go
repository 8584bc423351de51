// Package vasana crystallises behavioural tendencies from a stream of
// user-turn observations. Each project (or the special __global__ scope)
// runs its own Bayesian online changepoint detector over an observed
// valence signal; when the detector's belief settles on a fresh run long
// enough to trust, a new Vasana is crystallised. Re-observation of a
// matching tendency reinforces it; querying decays it by elapsed time
// since last activation, and consolidation prunes whatever decays below
// threshold.
package vasana

import (
	"math"
	"time"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/idgen"
)

// Valence is the sign classification of a vasana's overall effect.
type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNegative Valence = "negative"
	ValenceNeutral  Valence = "neutral"
)

// GlobalProject is the sentinel project name cross-project-promoted
// vasanas move to.
const GlobalProject = "__global__"

// Vasana is a crystallised behavioural tendency.
type Vasana struct {
	ID             string
	Name           string
	Description    string
	Valence        Valence
	Strength       float64
	Stability      float64
	Project        string
	CreatedAt      time.Time
	LastActivated  time.Time
	ActivationCount int
}

// Observation is one user-turn signal feeding the changepoint detector: a
// scalar valence score, a novelty score (how unlike recent observations
// this one is), and the tool context it occurred in (used only for naming
// a crystallised vasana, not for the detector itself).
type Observation struct {
	At      time.Time
	Valence float64 // positive/negative signed magnitude
	Novelty float64
	Tool    string
	Summary string
}

// Engine runs one changepoint detector per (project) stream and manages
// the crystallisation/reinforcement/promotion/decay lifecycle.
type Engine struct {
	Config config.VasanaConfig

	detectors map[string]*BOCPD
	runStart  map[string]time.Time
	runSum    map[string]float64
	runCount  map[string]int
}

// NewEngine builds an Engine with the given configuration.
func NewEngine(cfg config.VasanaConfig) *Engine {
	return &Engine{
		Config:    cfg.Clamp(),
		detectors: make(map[string]*BOCPD),
		runStart:  make(map[string]time.Time),
		runSum:    make(map[string]float64),
		runCount:  make(map[string]int),
	}
}

const (
	minObservations          = 5
	crystallizePosteriorGate = 0.6
	expectedRunLength        = 20.0
)

// Observe feeds one observation into project's detector. When the detector
// concludes a changepoint occurred far enough back and its posterior
// exceeds the crystallisation gate, it returns a freshly crystallised
// Vasana; otherwise ok is false.
func (e *Engine) Observe(project string, obs Observation) (v Vasana, ok bool) {
	det, exists := e.detectors[project]
	if !exists {
		det = NewBOCPD(expectedRunLength)
		e.detectors[project] = det
		e.runStart[project] = obs.At
		e.runSum[project] = 0
		e.runCount[project] = 0
	}

	runLength, posterior := det.Step(obs.Valence)

	if runLength == 0 {
		// Changepoint just occurred: a new run begins at this observation.
		e.runStart[project] = obs.At
		e.runSum[project] = 0
		e.runCount[project] = 0
	}
	e.runSum[project] += obs.Valence
	e.runCount[project]++

	if runLength < minObservations || posterior < crystallizePosteriorGate {
		return Vasana{}, false
	}

	mean := e.runSum[project] / float64(e.runCount[project])
	confidence := posterior

	v = Vasana{
		ID:              idgen.DeterministicID("vas", project, obs.Summary+"|"+project, 6),
		Name:            deriveName(obs),
		Description:     obs.Summary,
		Valence:         valenceFromMean(mean),
		Strength:        clampUnit(confidence),
		Stability:       clampUnit(float64(e.runCount[project]) / float64(e.runCount[project]+minObservations)),
		Project:         project,
		CreatedAt:       obs.At,
		LastActivated:   obs.At,
		ActivationCount: 1,
	}
	return v, true
}

func deriveName(obs Observation) string {
	if obs.Summary != "" {
		return obs.Summary
	}
	if obs.Tool != "" {
		return "tendency around " + obs.Tool
	}
	return "unnamed tendency"
}

func valenceFromMean(mean float64) Valence {
	switch {
	case mean > 0.05:
		return ValencePositive
	case mean < -0.05:
		return ValenceNegative
	default:
		return ValenceNeutral
	}
}

// Reinforce increments activation bookkeeping and moves strength toward
// the observation's signal with learning rate eta, per the spec's
// reinforcement rule.
func Reinforce(v Vasana, obs Observation, at time.Time, eta float64) Vasana {
	if eta <= 0 || eta > 1 {
		eta = 0.1
	}
	target := clampUnit(math.Abs(obs.Valence))
	v.Strength = clampUnit(v.Strength + eta*(target-v.Strength))
	v.Stability = clampUnit(v.Stability + eta*(1-v.Stability))
	v.ActivationCount++
	v.LastActivated = at
	return v
}

// EffectiveStrength returns strength decayed since last activation:
// strength * 0.5^(age_days / halfLifeDays).
func EffectiveStrength(v Vasana, now time.Time, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		halfLifeDays = 14
	}
	ageDays := now.Sub(v.LastActivated).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return v.Strength * math.Pow(0.5, ageDays/halfLifeDays)
}

// ShouldPrune reports whether v's decayed strength has fallen below the
// configured prune threshold, making it a pruning candidate during the
// next consolidation cycle.
func ShouldPrune(v Vasana, now time.Time, cfg config.VasanaConfig) bool {
	return EffectiveStrength(v, now, cfg.DefaultHalfLifeDays) < cfg.PruneThreshold
}

// PromotionCandidate reports whether a vasana observed with sustained high
// stability across multiple distinct projects should be promoted to the
// __global__ project. observedStability is keyed by project name; a
// candidate needs at least 2 non-global projects each with stability above
// the configured promotion threshold.
func PromotionCandidate(observedStability map[string]float64, cfg config.VasanaConfig) bool {
	qualifying := 0
	for project, stability := range observedStability {
		if project == GlobalProject {
			continue
		}
		if stability >= cfg.PromotionThreshold {
			qualifying++
		}
	}
	return qualifying >= 2
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
