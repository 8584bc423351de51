package samskara

import (
	"regexp"
	"strings"

	"github.com/sriinnu/chitragupta/internal/session"
)

// detectorResult accumulates raw occurrence counts per canonicalised
// pattern content, keyed so repeated occurrences across many turns collapse
// into one candidate with a count instead of one candidate per occurrence.
type detectorResult map[string]*candidateAccum

type candidateAccum struct {
	candidate Candidate
	count     int
}

func (r detectorResult) add(c Candidate) {
	existing, ok := r[c.Content]
	if !ok {
		r[c.Content] = &candidateAccum{candidate: c, count: 1}
		return
	}
	existing.count++
}

// gate filters r down to candidates meeting minObservations, returning them
// alongside their observation counts.
func (r detectorResult) gate(minObservations int) ([]Candidate, []int) {
	var cands []Candidate
	var counts []int
	for _, acc := range r {
		if acc.count < minObservations {
			continue
		}
		cands = append(cands, acc.candidate)
		counts = append(counts, acc.count)
	}
	return cands, counts
}

var (
	preferenceRe = regexp.MustCompile(`(?i)\bi (?:prefer|like|want) (.{3,80}?)(?:[.!?]|$)`)
	decisionRe   = regexp.MustCompile(`(?i)\b(?:let'?s go with|we'?ll use|i'?ll use|we decided to|decided to use) (.{3,80}?)(?:[.!?]|$)`)
	correctionRe = regexp.MustCompile(`(?i)\b(?:actually|no[,.]?|wait)[,\s]+(?:use |it'?s |i meant )(.{3,80}?)(?:[.!?]|$)`)
	insteadRe    = regexp.MustCompile(`(?i)\buse (.{3,60}?) instead\b`)
	conventionRe = regexp.MustCompile(`(?i)\b(?:always|never|by convention) (.{3,80}?)(?:[.!?]|$)`)
)

// DetectToolSequences finds bigrams of consecutive tool-call names within
// assistant turns across sessions, a proxy for habitual tool-usage
// workflows ("edit then test", "grep then read").
func DetectToolSequences(sessions []session.Session, minObservations int) []Candidate {
	result := make(detectorResult)
	for _, sess := range sessions {
		for _, turn := range sess.Turns {
			if turn.Role != session.RoleAssistant || len(turn.ToolCalls) < 2 {
				continue
			}
			for i := 0; i < len(turn.ToolCalls)-1; i++ {
				a, b := turn.ToolCalls[i].Name, turn.ToolCalls[i+1].Name
				if a == "" || b == "" {
					continue
				}
				content := a + " -> " + b
				result.add(Candidate{PatternType: PatternToolSequence, Content: content, Tags: []string{a, b}})
			}
		}
	}
	cands, _ := result.gate(minObservations)
	return cands
}

// DetectPreferences finds "I prefer/like/want X" phrases in user turns.
func DetectPreferences(sessions []session.Session, minObservations int) []Candidate {
	return detectByRegex(sessions, session.RoleUser, preferenceRe, PatternPreference, minObservations)
}

// DetectDecisions finds phrases committing to a course of action.
func DetectDecisions(sessions []session.Session, minObservations int) []Candidate {
	result := make(detectorResult)
	for _, sess := range sessions {
		for _, turn := range sess.Turns {
			for _, m := range decisionRe.FindAllStringSubmatch(turn.Content, -1) {
				result.add(Candidate{PatternType: PatternDecision, Content: canonicalize(m[1])})
			}
		}
	}
	cands, _ := result.gate(minObservations)
	return cands
}

// DetectCorrections finds "actually/no, use X instead"-style self
// corrections, the spec's signal that a prior assumption was wrong and
// should be remembered as a steer for next time.
func DetectCorrections(sessions []session.Session, minObservations int) []Candidate {
	result := make(detectorResult)
	for _, sess := range sessions {
		for _, turn := range sess.Turns {
			if turn.Role != session.RoleUser {
				continue
			}
			for _, m := range correctionRe.FindAllStringSubmatch(turn.Content, -1) {
				result.add(Candidate{PatternType: PatternCorrection, Content: canonicalize(m[1])})
			}
			for _, m := range insteadRe.FindAllStringSubmatch(turn.Content, -1) {
				result.add(Candidate{PatternType: PatternCorrection, Content: canonicalize(m[1])})
			}
		}
	}
	cands, _ := result.gate(minObservations)
	return cands
}

// DetectConventions finds "always/never X" style convention statements.
func DetectConventions(sessions []session.Session, minObservations int) []Candidate {
	return detectByRegex(sessions, session.RoleUser, conventionRe, PatternConvention, minObservations)
}

func detectByRegex(sessions []session.Session, role string, re *regexp.Regexp, pt PatternType, minObservations int) []Candidate {
	result := make(detectorResult)
	for _, sess := range sessions {
		for _, turn := range sess.Turns {
			if role != "" && turn.Role != role {
				continue
			}
			for _, m := range re.FindAllStringSubmatch(turn.Content, -1) {
				result.add(Candidate{PatternType: pt, Content: canonicalize(m[1])})
			}
		}
	}
	cands, _ := result.gate(minObservations)
	return cands
}

// canonicalize normalises captured phrase text so the same underlying
// preference/decision doesn't mint two near-duplicate samskaras over
// whitespace or casing differences.
func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// DetectAll runs all five detectors over sessions and returns every
// candidate meeting minObservations, tagged with its originating pattern
// type.
func DetectAll(sessions []session.Session, minObservations int) []Candidate {
	var out []Candidate
	out = append(out, DetectToolSequences(sessions, minObservations)...)
	out = append(out, DetectPreferences(sessions, minObservations)...)
	out = append(out, DetectDecisions(sessions, minObservations)...)
	out = append(out, DetectCorrections(sessions, minObservations)...)
	out = append(out, DetectConventions(sessions, minObservations)...)
	return out
}
