package hybrid

import (
	"regexp"
	"strings"
)

// shortAckThreshold is the word count under which a query is considered
// too short to carry retrievable intent on its own.
const shortAckThreshold = 3

var pureGreetingRe = regexp.MustCompile(`^(hi|hey|hello|yo|sup|thanks|thank you|ok|okay|cool|got it|sounds good|bye|goodbye)[!.? ]*$`)
var pureePunctuationRe = regexp.MustCompile(`^[\s!?.,:;\-]+$`)

// ShouldRetrieve reports whether query carries enough intent to justify
// running the full signal fan-out. Short acknowledgements ("ok", "thanks",
// "!"), bare interjections, and pure-punctuation inputs skip retrieval
// entirely since no signal would return anything meaningful for them.
func ShouldRetrieve(query string) bool {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	if pureePunctuationRe.MatchString(trimmed) {
		return false
	}
	if pureGreetingRe.MatchString(lower) {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) < shortAckThreshold && !strings.Contains(trimmed, "?") {
		return false
	}
	return true
}
