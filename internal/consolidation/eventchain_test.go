package consolidation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/consolidation"
	"github.com/sriinnu/chitragupta/internal/session"
)

func turn(role, content string, toolCalls ...session.ToolCall) session.Turn {
	return session.Turn{Role: role, Content: content, ToolCalls: toolCalls, CreatedAt: time.Now()}
}

func TestClassifyCoreCoding(t *testing.T) {
	sess := session.Session{Turns: []session.Turn{
		turn(session.RoleUser, "fix the bug"),
		turn(session.RoleAssistant, "done", session.ToolCall{Name: "edit_file"}),
		turn(session.RoleUser, "now run the tests"),
		turn(session.RoleAssistant, "ran them", session.ToolCall{Name: "run_tests"}),
	}}
	assert.Equal(t, consolidation.CoreCoding, consolidation.ClassifyCore(sess))
}

func TestClassifyCorePersonal(t *testing.T) {
	sess := session.Session{Turns: []session.Turn{
		turn(session.RoleUser, "good morning"),
		turn(session.RoleAssistant, "good morning to you too"),
	}}
	assert.Equal(t, consolidation.CorePersonal, consolidation.ClassifyCore(sess))
}

func TestClassifyCoreDiscussion(t *testing.T) {
	sess := session.Session{Turns: []session.Turn{
		turn(session.RoleUser, "What do you think is the best way to structure a long-term retirement portfolio given rising inflation expectations?"),
		turn(session.RoleAssistant, "There are a few schools of thought here, each with tradeoffs worth weighing carefully before committing."),
	}}
	assert.Equal(t, consolidation.CoreDiscussion, consolidation.ClassifyCore(sess))
}

func TestClassifyCoreEmptySessionIsMixed(t *testing.T) {
	assert.Equal(t, consolidation.CoreMixed, consolidation.ClassifyCore(session.Session{}))
}

func TestClassifyDomainRequiresTwoGroups(t *testing.T) {
	sess := session.Session{Turns: []session.Turn{
		turn(session.RoleUser, "let's talk about my budget and taxes this year"),
	}}
	assert.Equal(t, consolidation.Domain(""), consolidation.ClassifyDomain(sess))
}

func TestClassifyDomainPicksHighestCount(t *testing.T) {
	sess := session.Session{Turns: []session.Turn{
		turn(session.RoleUser, "let's plan the roadmap and milestone deadlines"),
		turn(session.RoleAssistant, "I also want to study for the tutorial course on this"),
		turn(session.RoleUser, "and review my budget and expenses"),
	}}
	domain := consolidation.ClassifyDomain(sess)
	assert.NotEmpty(t, domain)
}

func TestExtractUserPriorityOrder(t *testing.T) {
	kind, summary := consolidation.ExtractUser("remember that I live in Austin")
	assert.Equal(t, consolidation.EventFact, kind)
	assert.Equal(t, "remember that I live in Austin", summary)

	kind, _ = consolidation.ExtractUser("I always prefer tabs over spaces")
	assert.Equal(t, consolidation.EventPreference, kind)

	kind, _ = consolidation.ExtractUser("What time is the meeting?")
	assert.Equal(t, consolidation.EventQuestion, kind)

	kind, _ = consolidation.ExtractUser("Use the new logging library.")
	assert.Equal(t, consolidation.EventDecision, kind)
}

func TestExtractUserEmptyContent(t *testing.T) {
	kind, summary := consolidation.ExtractUser("   ")
	assert.Equal(t, consolidation.EventKind(""), kind)
	assert.Empty(t, summary)
}

func TestExtractAssistantCodingEvents(t *testing.T) {
	tn := turn(session.RoleAssistant, "modified file internal/foo.go and committed abc1234",
		session.ToolCall{Name: "edit_file"},
		session.ToolCall{Name: "run_tests", IsError: true},
	)
	events := consolidation.ExtractAssistant(consolidation.CoreCoding, tn)
	var kinds []consolidation.EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, consolidation.EventToolResult)
	assert.Contains(t, kinds, consolidation.EventFileChange)
	assert.Contains(t, kinds, consolidation.EventCommit)
}

func TestExtractAssistantPersonalSkipsLongReplies(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	events := consolidation.ExtractAssistant(consolidation.CorePersonal, turn(session.RoleAssistant, string(long)))
	assert.Empty(t, events)
}

func TestExtractDedupesAndSorts(t *testing.T) {
	now := time.Now()
	sess := session.Session{
		ID: "s1",
		Turns: []session.Turn{
			{Role: session.RoleUser, Content: "remember that I live in Austin", CreatedAt: now.Add(2 * time.Minute), Ordinal: 1},
			{Role: session.RoleUser, Content: "Remember that I live in Austin!", CreatedAt: now, Ordinal: 2},
		},
	}
	chain := consolidation.Extract(sess)
	require.Len(t, chain.Events, 1)
	assert.True(t, chain.Events[0].At.Equal(now))
}

func TestBuildNarrativeDefaultsLabelAndProvider(t *testing.T) {
	at := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	narrative := consolidation.Extract(session.Session{Turns: []session.Turn{
		{Role: session.RoleUser, Content: "remember that I live in Austin", CreatedAt: at},
	}}).Narrative
	assert.Contains(t, narrative, "09:30 assistant [General]:")
}
