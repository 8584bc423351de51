package smaran

import "regexp"

var (
	factRe        = regexp.MustCompile(`(?i)\b(?:remember that|my name is|i live in|i work at|i'm based in)\b`)
	preferenceRe  = regexp.MustCompile(`(?i)\b(?:always|never|i prefer)\b`)
	instructionRe = regexp.MustCompile(`(?i)\b(?:please|make sure to|don'?t forget to|be sure to)\b`)
)

// Detect classifies a single user-turn line of content into a Category
// using marker patterns checked in priority order: fact markers first (most
// specific), then instruction markers, then preference markers. Content
// matching none of these is not detected as a smaran entry; explicit
// Remember calls are the only way to store it.
func Detect(content string) (Category, bool) {
	switch {
	case factRe.MatchString(content):
		return CategoryFact, true
	case instructionRe.MatchString(content):
		return CategoryInstruction, true
	case preferenceRe.MatchString(content):
		return CategoryPreference, true
	default:
		return "", false
	}
}
