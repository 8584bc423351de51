// Package navarasa implements the optional affective bias: a
// simplex-constrained nine-component probability vector (the nava rasa,
// "nine sentiments", of classical Indian aesthetic theory) updated by
// observation inputs via an exponentially-weighted moving average and a
// softmax projection. The dominant component exposes a behavioural
// adaptation record (autonomy / verbosity / confirmation) consolidation
// and Pratyabhijna may read when deciding how much to ask versus assume.
package navarasa

import (
	"math"
	"time"

	"github.com/sriinnu/chitragupta/internal/config"
)

// Rasa is one of the nine affective dimensions.
type Rasa string

const (
	Shringara Rasa = "shringara" // love / delight
	Hasya     Rasa = "hasya"     // mirth / humour
	Karuna    Rasa = "karuna"    // compassion / sorrow
	Raudra    Rasa = "raudra"    // anger / frustration
	Veera     Rasa = "veera"     // heroism / confidence
	Bhayanaka Rasa = "bhayanaka" // fear / anxiety
	Bibhatsa  Rasa = "bibhatsa"  // disgust / aversion
	Adbhuta   Rasa = "adbhuta"   // wonder / curiosity
	Shanta    Rasa = "shanta"    // peace / calm (the resting state)
)

// Order fixes iteration order for deterministic vector operations.
var Order = []Rasa{Shringara, Hasya, Karuna, Raudra, Veera, Bhayanaka, Bibhatsa, Adbhuta, Shanta}

// HistoryEntry is one recorded state snapshot, kept so callers can inspect
// how the affective tone drifted over a session.
type HistoryEntry struct {
	At    time.Time
	State map[Rasa]float64
}

// State is the nine-element probability vector plus its update history.
// The zero value is not usable; construct with NewState, which starts
// shanta-dominant (calm, at rest) as reset() does.
type State struct {
	Config  config.NavaRasaConfig
	Values  map[Rasa]float64
	History []HistoryEntry
}

// NewState builds a shanta-dominant starting state: shanta at 1.0, every
// other component at 0.
func NewState(cfg config.NavaRasaConfig) *State {
	s := &State{Config: cfg.Clamp()}
	s.Reset()
	return s
}

// Reset returns the state to shanta-dominant, per the spec's reset()
// contract, clearing history.
func (s *State) Reset() {
	s.Values = make(map[Rasa]float64, len(Order))
	for _, r := range Order {
		s.Values[r] = 0
	}
	s.Values[Shanta] = 1.0
	s.History = nil
}

// Observation is one raw input signal the EWMA update blends in: a raw,
// not-yet-normalized score per rasa (e.g. from event-chain valence
// classification). Observe projects it through softmax before blending so
// the update always respects the simplex.
type Observation map[Rasa]float64

// Observe blends observation into the current state via
// new = (1-alpha)*old + alpha*softmax(observation, tau), renormalizes to
// guard against floating-point drift, clamps every component into [0,1],
// and appends a history entry. Inputs outside configured bounds are
// clamped to system ceilings before the blend, not after, so a single wild
// observation can never push the state out of the simplex.
func (s *State) Observe(now time.Time, obs Observation) {
	raw := make(map[Rasa]float64, len(Order))
	for _, r := range Order {
		v := obs[r]
		if v < -1e6 {
			v = -1e6
		}
		if v > 1e6 {
			v = 1e6
		}
		raw[r] = v
	}
	projected := softmax(raw, s.Config.Temperature)

	next := make(map[Rasa]float64, len(Order))
	alpha := s.Config.Alpha
	for _, r := range Order {
		next[r] = (1-alpha)*s.Values[r] + alpha*projected[r]
	}
	s.Values = clampToSimplex(next)
	s.History = append(s.History, HistoryEntry{At: now, State: cloneValues(s.Values)})
}

// Dominant returns the rasa with the highest current weight; ties break on
// Order's fixed iteration order.
func (s *State) Dominant() Rasa {
	best := Order[0]
	bestVal := s.Values[Order[0]]
	for _, r := range Order[1:] {
		if s.Values[r] > bestVal {
			best = r
			bestVal = s.Values[r]
		}
	}
	return best
}

// Adaptation is the behavioural record a dominant rasa exposes: how
// autonomously to act, how verbose to be, and whether to pause for
// confirmation before a consequential action.
type Adaptation struct {
	Autonomy       float64 // 0 (ask first) .. 1 (act independently)
	Verbosity      float64 // 0 (terse) .. 1 (expansive)
	RequireConfirm bool
}

// adaptations maps each dominant rasa to its behavioural adaptation. Raudra
// (frustration) and Bhayanaka (anxiety) dial autonomy down and require
// confirmation; Veera (confidence) and Shanta (calm) dial it up.
var adaptations = map[Rasa]Adaptation{
	Shringara: {Autonomy: 0.6, Verbosity: 0.6, RequireConfirm: false},
	Hasya:     {Autonomy: 0.6, Verbosity: 0.5, RequireConfirm: false},
	Karuna:    {Autonomy: 0.4, Verbosity: 0.7, RequireConfirm: true},
	Raudra:    {Autonomy: 0.2, Verbosity: 0.3, RequireConfirm: true},
	Veera:     {Autonomy: 0.9, Verbosity: 0.4, RequireConfirm: false},
	Bhayanaka: {Autonomy: 0.2, Verbosity: 0.8, RequireConfirm: true},
	Bibhatsa:  {Autonomy: 0.3, Verbosity: 0.4, RequireConfirm: true},
	Adbhuta:   {Autonomy: 0.5, Verbosity: 0.8, RequireConfirm: false},
	Shanta:    {Autonomy: 0.7, Verbosity: 0.5, RequireConfirm: false},
}

// AdaptationFor returns the behavioural adaptation record for the current
// dominant rasa.
func (s *State) AdaptationFor() Adaptation {
	return adaptations[s.Dominant()]
}

func softmax(raw map[Rasa]float64, tau float64) map[Rasa]float64 {
	if tau <= 0 {
		tau = 1.0
	}
	maxV := math.Inf(-1)
	for _, r := range Order {
		if raw[r] > maxV {
			maxV = raw[r]
		}
	}
	sum := 0.0
	exps := make(map[Rasa]float64, len(Order))
	for _, r := range Order {
		e := math.Exp((raw[r] - maxV) / tau)
		exps[r] = e
		sum += e
	}
	out := make(map[Rasa]float64, len(Order))
	for _, r := range Order {
		if sum == 0 {
			out[r] = 1.0 / float64(len(Order))
			continue
		}
		out[r] = exps[r] / sum
	}
	return out
}

// clampToSimplex clamps every component to [0,1] then renormalizes so the
// vector sums to 1 within floating-point tolerance, guarding against drift
// accumulating across thousands of EWMA updates.
func clampToSimplex(v map[Rasa]float64) map[Rasa]float64 {
	out := make(map[Rasa]float64, len(v))
	sum := 0.0
	for _, r := range Order {
		x := v[r]
		if x < 0 {
			x = 0
		}
		if x > 1 {
			x = 1
		}
		out[r] = x
		sum += x
	}
	if sum <= 0 {
		out[Shanta] = 1.0
		for _, r := range Order {
			if r != Shanta {
				out[r] = 0
			}
		}
		return out
	}
	if math.Abs(sum-1) > 1e-12 {
		for _, r := range Order {
			out[r] /= sum
		}
	}
	return out
}

func cloneValues(v map[Rasa]float64) map[Rasa]float64 {
	out := make(map[Rasa]float64, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Sum returns the current total weight across all nine components, which
// should always equal 1 within 1e-8 — the simplex invariant every caller
// of Observe relies on.
func (s *State) Sum() float64 {
	sum := 0.0
	for _, r := range Order {
		sum += s.Values[r]
	}
	return sum
}
