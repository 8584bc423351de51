package consolidation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sriinnu/chitragupta/internal/session"
)

var (
	factMarkerRe       = regexp.MustCompile(`(?i)\b(?:i live in|my name is|remember that)\b`)
	preferenceMarkerRe = regexp.MustCompile(`(?i)\b(?:always|never|i prefer)\b`)
	questionWordRe     = regexp.MustCompile(`(?i)^\s*(?:who|what|when|where|why|how|is|are|can|could|would|should|do|does|did)\b`)
	inlineToolMarkerRe = regexp.MustCompile("(?s)```|`[^`]+`")

	fileModifiedRe = regexp.MustCompile(`(?i)\b(?:modified|edited|created|updated|wrote) (?:file )?([\w./\-]+\.\w+)`)
	commitRe       = regexp.MustCompile(`(?i)\bcommit(?:ted)?\b[^.]*?\b([0-9a-f]{7,40})\b`)
	errorReportRe  = regexp.MustCompile(`(?i)\b(?:error|exception|failed|failure|traceback)\b`)
	conclusionRe   = regexp.MustCompile(`(?i)\b(?:in conclusion|so the plan is|to summarize|overall|in summary)\b`)
	optionListRe   = regexp.MustCompile(`(?m)^\s*(?:[-*]|\d+[.)])\s+(.+)$`)

	domainSignals = map[Domain][]*regexp.Regexp{
		DomainPlanning:    {regexp.MustCompile(`(?i)\b(?:plan|roadmap|milestone|deadline)\b`)},
		DomainLearning:    {regexp.MustCompile(`(?i)\b(?:learn|study|tutorial|course)\b`)},
		DomainCreative:    {regexp.MustCompile(`(?i)\b(?:story|poem|design|draft|sketch)\b`)},
		DomainHealth:      {regexp.MustCompile(`(?i)\b(?:doctor|symptom|medication|workout|diet)\b`)},
		DomainFinance:     {regexp.MustCompile(`(?i)\b(?:budget|invoice|expense|invest|tax)\b`)},
		DomainSocial:      {regexp.MustCompile(`(?i)\b(?:friend|family|party|relationship)\b`)},
		DomainResearch:    {regexp.MustCompile(`(?i)\b(?:paper|citation|hypothesis|experiment)\b`)},
		DomainReflection:  {regexp.MustCompile(`(?i)\b(?:feel|reflect|journal|grateful)\b`)},
		DomainSecurity:    {regexp.MustCompile(`(?i)\b(?:vulnerability|exploit|cve|auth|credential)\b`)},
		DomainOperational: {regexp.MustCompile(`(?i)\b(?:deploy|incident|outage|oncall|rollback)\b`)},
	}
)

// ClassifyCore derives a session's primary type from the ratio of
// tool-bearing assistant turns to total turns and the average user-turn
// length.
func ClassifyCore(sess session.Session) CoreType {
	var userTurns, toolTurns int
	var userCharTotal int
	for _, t := range sess.Turns {
		if t.Role == session.RoleUser {
			userTurns++
			userCharTotal += len(t.Content)
		}
		if t.Role == session.RoleAssistant && len(t.ToolCalls) > 0 {
			toolTurns++
		}
	}
	if len(sess.Turns) == 0 {
		return CoreMixed
	}
	toolRatio := float64(toolTurns) / float64(len(sess.Turns))
	avgUserLen := 0.0
	if userTurns > 0 {
		avgUserLen = float64(userCharTotal) / float64(userTurns)
	}

	switch {
	case toolRatio > 0.4:
		return CoreCoding
	case avgUserLen < 60 && toolRatio < 0.1:
		return CorePersonal
	case avgUserLen >= 60 && toolRatio < 0.1:
		return CoreDiscussion
	default:
		return CoreMixed
	}
}

// ClassifyDomain refines CoreType into one of ten extended domains when at
// least two distinct domain-signal groups match across the session's
// content. Returns "" when fewer than two match.
func ClassifyDomain(sess session.Session) Domain {
	var allText strings.Builder
	for _, t := range sess.Turns {
		allText.WriteString(t.Content)
		allText.WriteByte('\n')
	}
	text := allText.String()

	type hit struct {
		domain Domain
		count  int
	}
	var hits []hit
	for d, patterns := range domainSignals {
		matched := 0
		for _, p := range patterns {
			if p.MatchString(text) {
				matched++
			}
		}
		if matched > 0 {
			hits = append(hits, hit{domain: d, count: matched})
		}
	}
	if len(hits) < 2 {
		return ""
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].domain < hits[j].domain
	})
	return hits[0].domain
}

// ExtractUser classifies a single user turn's content into an event kind,
// in priority order: inline tool marker -> action; fact markers -> fact;
// preference markers -> preference; question form -> question; otherwise
// short statements -> decision; any remaining content -> topic (the
// catch-all, using the first meaningful line).
func ExtractUser(content string) (EventKind, string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ""
	}
	switch {
	case inlineToolMarkerRe.MatchString(trimmed):
		return EventAction, firstLine(trimmed)
	case factMarkerRe.MatchString(trimmed):
		return EventFact, trimmed
	case preferenceMarkerRe.MatchString(trimmed):
		return EventPreference, trimmed
	case strings.HasSuffix(trimmed, "?") || questionWordRe.MatchString(trimmed):
		return EventQuestion, trimmed
	case len(trimmed) <= 140:
		return EventDecision, trimmed
	default:
		return EventTopic, firstLine(trimmed)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// ExtractAssistant applies the strategy matching core to an assistant
// turn's content and tool calls, producing zero or more events.
func ExtractAssistant(core CoreType, turn session.Turn) []Event {
	var events []Event
	switch core {
	case CoreCoding:
		events = append(events, extractCodingEvents(turn)...)
	case CoreDiscussion:
		events = append(events, extractDiscussionEvents(turn)...)
	case CorePersonal:
		events = append(events, extractPersonalEvents(turn)...)
	default: // mixed applies both coding and discussion strategies
		events = append(events, extractCodingEvents(turn)...)
		events = append(events, extractDiscussionEvents(turn)...)
	}
	return events
}

func extractCodingEvents(turn session.Turn) []Event {
	var events []Event
	for _, tc := range turn.ToolCalls {
		summary := tc.Name
		if tc.IsError {
			summary = fmt.Sprintf("%s failed", tc.Name)
		}
		events = append(events, Event{Kind: EventToolResult, Summary: summary, At: turn.CreatedAt, Turn: turn.Ordinal})
	}
	for _, m := range fileModifiedRe.FindAllStringSubmatch(turn.Content, -1) {
		events = append(events, Event{Kind: EventFileChange, Summary: m[1], At: turn.CreatedAt, Turn: turn.Ordinal})
	}
	for _, m := range commitRe.FindAllStringSubmatch(turn.Content, -1) {
		events = append(events, Event{Kind: EventCommit, Summary: m[1], At: turn.CreatedAt, Turn: turn.Ordinal})
	}
	if errorReportRe.MatchString(turn.Content) {
		events = append(events, Event{Kind: EventErrorReport, Summary: firstLine(turn.Content), At: turn.CreatedAt, Turn: turn.Ordinal})
	}
	return events
}

func extractDiscussionEvents(turn session.Turn) []Event {
	var events []Event
	for _, m := range optionListRe.FindAllStringSubmatch(turn.Content, -1) {
		events = append(events, Event{Kind: EventOption, Summary: strings.TrimSpace(m[1]), At: turn.CreatedAt, Turn: turn.Ordinal})
	}
	if conclusionRe.MatchString(turn.Content) {
		events = append(events, Event{Kind: EventConclusion, Summary: firstLine(turn.Content), At: turn.CreatedAt, Turn: turn.Ordinal})
	}
	if len(events) == 0 && len(turn.Content) > 0 {
		events = append(events, Event{Kind: EventTopic, Summary: firstLine(turn.Content), At: turn.CreatedAt, Turn: turn.Ordinal})
	}
	return events
}

const personalLongReplyCutoff = 500

func extractPersonalEvents(turn session.Turn) []Event {
	if len(turn.Content) >= personalLongReplyCutoff {
		return nil
	}
	return []Event{{Kind: EventAction, Summary: firstLine(turn.Content), At: turn.CreatedAt, Turn: turn.Ordinal}}
}

// punctRe strips punctuation for deduplication comparisons.
var punctRe = regexp.MustCompile(`[[:punct:]]+`)

func normalizeForDedup(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Extract builds the full Chain for a session: classify, walk turns, sort,
// dedupe (keeping the earliest occurrence), and build the narrative.
func Extract(sess session.Session) Chain {
	core := ClassifyCore(sess)
	domain := ClassifyDomain(sess)

	var events []Event
	for _, turn := range sess.Turns {
		if turn.Role == session.RoleUser {
			if kind, summary := ExtractUser(turn.Content); kind != "" {
				events = append(events, Event{Kind: kind, Summary: summary, At: turn.CreatedAt, Turn: turn.Ordinal})
			}
			continue
		}
		events = append(events, ExtractAssistant(core, turn)...)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].At.Before(events[j].At) })
	events = dedupeEvents(events)

	return Chain{
		SessionID: sess.ID,
		Core:      core,
		Domain:    domain,
		Events:    events,
		Narrative: buildNarrative(sess, domain, events),
	}
}

func dedupeEvents(events []Event) []Event {
	seen := make(map[string]bool, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		key := string(e.Kind) + "\x00" + normalizeForDedup(e.Summary)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func buildNarrative(sess session.Session, domain Domain, events []Event) string {
	var b strings.Builder
	label := string(domain)
	if label == "" {
		label = "General"
	} else {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	provider := sess.Agent
	if provider == "" {
		provider = "assistant"
	}
	for _, e := range events {
		fmt.Fprintf(&b, "%s %s [%s]: %s\n", e.At.Format("15:04"), provider, label, e.Summary)
	}
	return b.String()
}
