package smaran

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/idgen"
)

// Engine is the collaborator-facing API for Smaran: explicit remembrance,
// automatic detection, and forgetting.
type Engine struct {
	store *Store
}

// NewEngine wraps a Store.
func NewEngine(store *Store) *Engine { return &Engine{store: store} }

var errEmptyContent = fmt.Errorf("smaran: content must not be empty: %w", errkind.ErrInvariant)

// Remember explicitly stores content under category, id-derived
// deterministically from category + trimmed content so calling Remember
// twice with the same inputs updates the same row rather than duplicating
// it.
func (e *Engine) Remember(ctx context.Context, category Category, content string, confidence float64, now time.Time) (Entry, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return Entry{}, errEmptyContent
	}
	entry := Entry{
		ID:         idgen.DeterministicID("smr", string(category), trimmed, 8),
		Category:   category,
		Content:    trimmed,
		CreatedAt:  now,
		Confidence: clampConfidence(confidence),
	}
	if err := e.store.Upsert(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// DetectAndRemember runs Detect over content and, if it matches a marker,
// remembers it at the given confidence. It returns ok=false without error
// when content matches no marker.
func (e *Engine) DetectAndRemember(ctx context.Context, content string, confidence float64, now time.Time) (Entry, bool, error) {
	category, ok := Detect(content)
	if !ok {
		return Entry{}, false, nil
	}
	entry, err := e.Remember(ctx, category, content, confidence, now)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Forget removes a remembered entry by id.
func (e *Engine) Forget(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
