// Package narrative optionally polishes template-built summary text into
// fluent prose via an Anthropic model; in this module the Pratyabhijna
// context builder is its only caller, and the consolidation writers do not
// use it. It is never load-bearing: the caller falls back to the template
// text untouched when no narrator is configured or a call fails.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	defaultModel   = anthropic.ModelClaudeHaiku4_5
)

// ErrNotConfigured is returned by New when no API key is available. Callers
// treat it as "run without a narrator", not a fatal error.
var ErrNotConfigured = errors.New("narrative: no API key configured")

// Narrator turns a bag of consolidation facts into short narrative prose.
type Narrator interface {
	// Polish rewrites draftText (already a valid, if mechanical, summary
	// built from templates) into smoother prose covering the same facts.
	// On any error the caller should keep using draftText.
	Polish(ctx context.Context, level string, draftText string) (string, error)
}

// NoopNarrator returns draftText unchanged. It is the default Narrator when
// no API key is configured, so callers never need a nil check.
type NoopNarrator struct{}

func (NoopNarrator) Polish(ctx context.Context, level string, draftText string) (string, error) {
	return draftText, nil
}

// Client wraps the Anthropic API for consolidation narrative polishing.
type Client struct {
	client         anthropic.Client
	model          anthropic.Model
	tmpl           *template.Template
	maxRetries     int
	initialBackoff time.Duration
}

// New creates a narrator client. The ANTHROPIC_API_KEY environment variable
// takes precedence over an explicitly supplied apiKey, matching the rest of
// this module's provider bootstrapping.
func New(apiKey string) (*Client, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	tmpl, err := template.New("polish").Parse(polishPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse narrative template: %w", err)
	}

	metricsOnce.Do(initMetrics)

	return &Client{
		client:         client,
		model:          defaultModel,
		tmpl:           tmpl,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

// Polish rewrites a mechanically-built consolidation summary into narrative
// prose that preserves every fact in draftText. It never returns an empty
// string on success and always falls back to draftText on error.
func (c *Client) Polish(ctx context.Context, level string, draftText string) (string, error) {
	var prompt strings.Builder
	if err := c.tmpl.Execute(&prompt, polishData{Level: level, Draft: draftText}); err != nil {
		return draftText, fmt.Errorf("render narrative prompt: %w", err)
	}

	text, err := c.callWithRetry(ctx, prompt.String())
	if err != nil {
		return draftText, err
	}
	if text == "" {
		return draftText, fmt.Errorf("narrative polish returned empty text")
	}
	return text, nil
}

type polishData struct {
	Level string
	Draft string
}

const polishPromptTemplate = `Rewrite the following {{.Level}} memory summary as flowing prose. Preserve every fact, name, and number exactly. Do not invent anything not present in the source. Keep it roughly the same length.

Source summary:
{{.Draft}}

Rewritten summary:`

var metrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var metricsOnce sync.Once

func initMetrics() {
	m := otel.Meter("chitragupta/narrative")
	metrics.inputTokens, _ = m.Int64Counter("narrative.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed by narrative polishing"),
		metric.WithUnit("{token}"),
	)
	metrics.outputTokens, _ = m.Int64Counter("narrative.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated by narrative polishing"),
		metric.WithUnit("{token}"),
	)
	metrics.duration, _ = m.Float64Histogram("narrative.request.duration",
		metric.WithDescription("Anthropic API request duration for narrative polishing"),
		metric.WithUnit("ms"),
	)
}

func (c *Client) callWithRetry(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("chitragupta/narrative")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("narrative.model", string(c.model)),
		attribute.String("narrative.operation", "polish"),
	)

	var lastErr error
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		t0 := time.Now()
		message, err := c.client.Messages.New(ctx, params)
		ms := float64(time.Since(t0).Milliseconds())

		if err == nil {
			modelAttr := attribute.String("narrative.model", string(c.model))
			if metrics.inputTokens != nil {
				metrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
				metrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
				metrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
			}
			span.SetAttributes(attribute.Int("narrative.attempts", attempt+1))

			if len(message.Content) > 0 && message.Content[0].Type == "text" {
				return message.Content[0].Text, nil
			}
			return "", fmt.Errorf("unexpected response: no text block")
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("non-retryable narrative error: %w", err)
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return "", fmt.Errorf("narrative polish failed after %d retries: %w", c.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
