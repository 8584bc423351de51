package idgen

import (
	"regexp"
	"strings"
	"unicode"
)

// StopWords are common words stripped before slugging a title or extracting
// follow-up search terms from a query. They carry no retrieval signal.
var StopWords = map[string]bool{
	// Articles
	"a": true, "an": true, "the": true,
	// Prepositions
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "from": true, "as": true,
	// Conjunctions
	"and": true, "or": true, "but": true, "nor": true,
	// Common verbs that don't add meaning
	"is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true,
	// Other common words
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true,
}

// nonAlphanumericRegex matches any non-alphanumeric character.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// multipleUnderscoreRegex matches multiple consecutive underscores.
var multipleUnderscoreRegex = regexp.MustCompile(`_+`)

// SlugGenerator converts session titles into filesystem- and id-safe slugs.
type SlugGenerator struct {
	maxSlugLength int
}

// NewSlugGenerator creates a generator with the default slug length.
func NewSlugGenerator() *SlugGenerator {
	return &SlugGenerator{maxSlugLength: 46}
}

// GenerateSlug converts a title to a slug: lowercase, underscore-separated,
// stop words removed.
func (g *SlugGenerator) GenerateSlug(title string) string {
	if title == "" {
		return "untitled"
	}

	slug := strings.ToLower(title)
	slug = nonAlphanumericRegex.ReplaceAllString(slug, " ")
	words := strings.Fields(slug)

	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if !StopWords[word] {
			filtered = append(filtered, word)
		}
	}
	if len(filtered) == 0 && len(words) > 0 {
		filtered = []string{words[0]}
	}

	slug = strings.Join(filtered, "_")
	if len(slug) > 0 && !unicode.IsLetter(rune(slug[0])) {
		slug = "n" + slug
	}

	if len(slug) > g.maxSlugLength {
		truncated := slug[:g.maxSlugLength]
		if lastUnderscore := strings.LastIndex(truncated, "_"); lastUnderscore > g.maxSlugLength/2 {
			truncated = truncated[:lastUnderscore]
		}
		slug = truncated
	}
	if len(slug) < 3 {
		slug = slug + strings.Repeat("x", 3-len(slug))
	}

	slug = strings.Trim(slug, "_")
	slug = multipleUnderscoreRegex.ReplaceAllString(slug, "_")
	return slug
}

// ExtractKeyTerms returns the distinct lowercase words of length >= minLen
// in s that are not stop words, preserving first-seen order. Anveshana uses
// this to mine follow-up search terms from the original query.
func ExtractKeyTerms(s string, minLen int) []string {
	lower := strings.ToLower(s)
	lower = nonAlphanumericRegex.ReplaceAllString(lower, " ")
	seen := make(map[string]bool)
	var terms []string
	for _, w := range strings.Fields(lower) {
		if len(w) < minLen || StopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}
