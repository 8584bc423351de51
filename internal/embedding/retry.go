package embedding

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryingProvider wraps a primary Provider with bounded exponential
// backoff for its Transient failures (the embedding-provider-unreachable
// case named in the error taxonomy), falling back to a deterministic
// HashTrickProvider once retries are exhausted or the primary isn't
// configured. Embed on a RetryingProvider therefore fails only when the
// caller's own context is done: otherwise indexing always makes progress,
// matching the graceful-degradation rule for a failing signal producer.
type RetryingProvider struct {
	Primary    Provider
	Fallback   *HashTrickProvider
	MaxRetries uint64
	Deadline   time.Duration
}

// NewRetryingProvider wraps primary (which may be nil). maxRetries <= 0
// defaults to 3; deadline <= 0 defaults to 10s.
func NewRetryingProvider(primary Provider, maxRetries uint64, deadline time.Duration) *RetryingProvider {
	dims := 256
	if primary != nil {
		dims = primary.Dimensions()
	}
	if maxRetries == 0 {
		maxRetries = 3
	}
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	return &RetryingProvider{
		Primary:    primary,
		Fallback:   NewHashTrickProvider(dims),
		MaxRetries: maxRetries,
		Deadline:   deadline,
	}
}

// IsConfigured reports whether the primary provider is usable. The fallback
// is always available, so this only describes whether real embeddings (as
// opposed to hash-trick ones) will be produced.
func (p *RetryingProvider) IsConfigured() bool {
	return p.Primary != nil && p.Primary.IsConfigured()
}

// Dimensions returns the fallback's width, which is constructed to match
// the primary's so both land in the same vector-store column.
func (p *RetryingProvider) Dimensions() int { return p.Fallback.Dimensions() }

// Embed tries the primary provider with bounded exponential backoff and
// falls back to the hash trick on timeout, exhausted retries, or a
// not-configured primary.
func (p *RetryingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.Primary == nil || !p.Primary.IsConfigured() {
		return p.Fallback.Embed(ctx, texts)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.Deadline)
	defer cancel()

	var out [][]float32
	op := func() error {
		vectors, err := p.Primary.Embed(callCtx, texts)
		if err != nil {
			return err
		}
		out = vectors
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.MaxRetries), callCtx)
	if err := backoff.Retry(op, bo); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return p.Fallback.Embed(ctx, texts)
	}
	return out, nil
}
