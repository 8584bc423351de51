// Package anveshana ("seeking out") implements Multi-Round Retrieval:
// heuristic query decomposition, per-sub-query search through Hybrid
// Search, weighted cross-round fusion, and adaptive termination. No model
// call is involved in decomposition — every rule is a marker or regex
// match, in the teacher's small-DSL-lexer style applied to natural
// language instead of a query grammar.
package anveshana

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/idgen"
)

// SubQuery is one query Round 0 dispatches to Hybrid Search, carrying the
// weight its contribution to fusion should be scaled by.
type SubQuery struct {
	Text   string
	Weight float64
}

var (
	conjunctionMarkerRe = regexp.MustCompile(`(?i)\b(and|or|but|that|which|who|where|when|while|although)\b`)
	temporalMarkerRe    = regexp.MustCompile(`(?i)\b(yesterday|today|last (week|month|year)|recently|before|after|since|ago|this (week|month|year))\b`)
	comparativeMarkerRe = regexp.MustCompile(`(?i)\b(vs\.?|versus|compared to|better than|worse than|more than|less than)\b`)
	quotedPhraseRe      = regexp.MustCompile(`"[^"]+"`)
	capitalizedTokenRe  = regexp.MustCompile(`\b[A-Z][a-zA-Z]+\b`)

	comparativeSplitRe  = regexp.MustCompile(`(?i)\s+(vs\.?|versus|compared to)\s+`)
	differenceBetweenRe = regexp.MustCompile(`(?i)difference between\s+(.+?)\s+and\s+(.+)`)
	causalSplitRe       = regexp.MustCompile(`(?i)\b(why|because|led to|resulted in|reason for|due to)\b`)
	multiEntityListRe   = regexp.MustCompile(`(?i)^(.*?),\s*(.+?),?\s+and\s+(.+)$`)
	conjunctionSplitRe  = regexp.MustCompile(`(?i)\s+(and|or|but|that|which|who|where|when|while|although)\s+`)
)

// IsComplex reports whether query meets the complexity gate: any of word
// count over the configured threshold, a conjunction/temporal/comparative
// marker, two or more quoted phrases, or two or more mid-sentence
// capitalised tokens (the first word of the sentence doesn't count, since
// sentence-initial capitalisation carries no signal).
func IsComplex(query string, cfg config.AnveshanaConfig) bool {
	words := strings.Fields(query)
	if len(words) > cfg.ComplexityWordCount {
		return true
	}
	if conjunctionMarkerRe.MatchString(query) {
		return true
	}
	if temporalMarkerRe.MatchString(query) {
		return true
	}
	if comparativeMarkerRe.MatchString(query) {
		return true
	}
	if len(quotedPhraseRe.FindAllString(query, -1)) >= 2 {
		return true
	}
	if midSentenceCapitalizedCount(query) >= 2 {
		return true
	}
	return false
}

// midSentenceCapitalizedCount counts capitalised tokens that are not the
// first word of the query, since the first word is capitalised by sentence
// case regardless of whether it names an entity.
func midSentenceCapitalizedCount(query string) int {
	matches := capitalizedTokenRe.FindAllStringIndex(query, -1)
	count := 0
	for _, m := range matches {
		if m[0] == 0 {
			continue
		}
		count++
	}
	return count
}

// Decompose builds the ordered set of sub-queries Round 0 dispatches,
// always including the original query at weight 1.0. Decomposition rules
// are tried in priority order and the first one that fires wins; simple
// (non-complex) queries return just the original. Sub-queries beyond the
// first get weight = max(0.4, 1.0 - 0.2*position), and the result is
// capped at cfg.MaxSubQueries, always keeping the original plus the
// highest-weighted decompositions.
func Decompose(query string, cfg config.AnveshanaConfig) []SubQuery {
	original := SubQuery{Text: query, Weight: 1.0}
	if !IsComplex(query, cfg) {
		return []SubQuery{original}
	}

	var parts []string
	switch {
	case comparativeSplitRe.MatchString(query):
		parts = splitOnce(comparativeSplitRe, query)
	case differenceBetweenRe.MatchString(query):
		if m := differenceBetweenRe.FindStringSubmatch(query); len(m) == 3 {
			parts = []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])}
		}
	case causalSplitRe.MatchString(query):
		parts = causalSplitRe.Split(query, -1)
	case multiEntityListRe.MatchString(query):
		if m := multiEntityListRe.FindStringSubmatch(query); len(m) == 4 {
			parts = []string{m[1], m[2], m[3]}
		}
	case conjunctionSplitRe.MatchString(query):
		parts = conjunctionSplitRe.Split(query, -1)
	}

	subQueries := []SubQuery{original}
	position := 1
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(p, ",;"))
		if p == "" {
			continue
		}
		weight := 1.0 - 0.2*float64(position)
		if weight < 0.4 {
			weight = 0.4
		}
		subQueries = append(subQueries, SubQuery{Text: p, Weight: weight})
		position++
	}

	return capSubQueries(subQueries, cfg.MaxSubQueries)
}

func splitOnce(re *regexp.Regexp, query string) []string {
	loc := re.FindStringSubmatchIndex(query)
	if loc == nil {
		return nil
	}
	left := query[:loc[0]]
	right := query[loc[1]:]
	return []string{left, right}
}

// capSubQueries keeps the original (always index 0) plus the
// highest-weighted decompositions, truncating to max.
func capSubQueries(subQueries []SubQuery, max int) []SubQuery {
	if max < 1 {
		max = 1
	}
	if len(subQueries) <= max {
		return subQueries
	}
	rest := append([]SubQuery(nil), subQueries[1:]...)
	sortByWeightDesc(rest)
	keep := max - 1
	if keep > len(rest) {
		keep = len(rest)
	}
	out := append([]SubQuery{subQueries[0]}, rest[:keep]...)
	return out
}

func sortByWeightDesc(s []SubQuery) {
	sort.Slice(s, func(i, j int) bool { return s[i].Weight > s[j].Weight })
}

// FollowUpTerms mines key terms from the original query that are absent
// from the accumulated result content and not already queried, for a
// round >= 1 follow-up. Terms are stop-word filtered and length-gated by
// cfg.KeyTermMinLength via idgen.ExtractKeyTerms.
func FollowUpTerms(originalQuery string, accumulatedContent string, alreadyQueried []string, cfg config.AnveshanaConfig) []string {
	terms := idgen.ExtractKeyTerms(originalQuery, cfg.KeyTermMinLength)
	queried := make(map[string]bool, len(alreadyQueried))
	for _, q := range alreadyQueried {
		queried[strings.ToLower(strings.TrimSpace(q))] = true
	}
	contentLower := strings.ToLower(accumulatedContent)

	var out []string
	for _, t := range terms {
		if queried[t] {
			continue
		}
		if strings.Contains(contentLower, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
