// Package embedding defines the contract Hybrid Search and the Consolidation
// Indexer use to turn text into vectors, plus the deterministic fallback
// that keeps indexing making progress when no provider is configured.
package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// Provider turns text into fixed-dimensionality float32 vectors. A real
// implementation wraps a hosted embedding API; it lives outside this module
// and is supplied by the host application.
type Provider interface {
	// IsConfigured reports whether the provider has what it needs (an API
	// key, a reachable endpoint) to serve Embed. Callers check this before
	// spending a timeout budget on a call that would only fail.
	IsConfigured() bool

	// Embed returns one vector per input text, each of length Dimensions().
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector width this provider produces.
	Dimensions() int
}

// HashTrickProvider is the always-available fallback: a stable, seedless
// projection of text into a fixed-width vector via the hashing trick. It is
// deterministic (same text always yields the same vector) and requires no
// network access, so indexing never stalls waiting on an external provider.
//
// Quality is far below a trained embedding model - collisions are common and
// no semantic relationships are captured beyond shared tokens - but it keeps
// cosine similarity meaningful enough to rank exact and near-duplicate text
// higher than unrelated text, which is what graceful degradation asks for.
type HashTrickProvider struct {
	dimensions int
}

// NewHashTrickProvider creates a fallback provider producing vectors of the
// given width. dimensions should match whatever a real provider in use would
// emit, since rows from both sources land in the same vectors table.
func NewHashTrickProvider(dimensions int) *HashTrickProvider {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashTrickProvider{dimensions: dimensions}
}

// IsConfigured always reports true: the hash trick needs no external setup.
func (p *HashTrickProvider) IsConfigured() bool { return true }

// Dimensions returns the configured vector width.
func (p *HashTrickProvider) Dimensions() int { return p.dimensions }

// Embed projects each text into the hashing-trick vector space and L2
// normalizes the result so cosine similarity behaves like it would for a
// trained embedding.
func (p *HashTrickProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = p.embedOne(text)
	}
	return out, nil
}

func (p *HashTrickProvider) embedOne(text string) []float32 {
	vec := make([]float32, p.dimensions)
	for _, tok := range tokenize(text) {
		idx, sign := hashToken(tok, p.dimensions)
		vec[idx] += sign
	}
	normalize(vec)
	return vec
}

// tokenize lowercases and splits on anything that is not a letter or digit,
// mirroring the tokenization Hybrid Search's lexical signal uses so both
// signals agree on what counts as a word.
func tokenize(text string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			cur = append(cur, r)
		case r >= 'A' && r <= 'Z':
			cur = append(cur, r-'A'+'a')
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// hashToken maps a token to a vector slot and a sign bit via two independent
// hashes of the same FNV-1a digest, the standard hashing-trick construction
// that keeps the expected inner product of unrelated tokens near zero.
func hashToken(tok string, dimensions int) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tok))
	sum := h.Sum64()
	idx := int(sum % uint64(dimensions))
	sign := float32(1)
	if sum&(1<<63) != 0 {
		sign = -1
	}
	return idx, sign
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}
