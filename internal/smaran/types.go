// Package smaran ("remembrance") holds small, explicit, category-indexed
// memory entries: standalone facts, preferences, decisions, and
// instructions a user states directly, as distinct from the patterns
// Samskara infers by repetition or the tendencies Vasana crystallises from
// a behavioural stream. Entries are created by explicit remember calls or
// by detecting one of a small set of natural-language markers, and removed
// by forget.
package smaran

import "time"

// Category classifies a remembered entry.
type Category string

const (
	CategoryPreference Category = "preference"
	CategoryFact        Category = "fact"
	CategoryDecision    Category = "decision"
	CategoryInstruction Category = "instruction"
)

// Entry is one remembered item.
type Entry struct {
	ID        string
	Category  Category
	Content   string
	CreatedAt time.Time
	Confidence float64
}
