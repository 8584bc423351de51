package anveshana

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/hybrid"
)

type stubSearcher struct {
	byQuery map[string][]hybrid.Result
}

func (s stubSearcher) Search(ctx context.Context, query string, limit int) ([]hybrid.Result, error) {
	return s.byQuery[query], nil
}

func TestRetrieveSimpleQueryBypassesDecomposition(t *testing.T) {
	searcher := stubSearcher{byQuery: map[string][]hybrid.Result{
		"what's the plan": {{ID: "a", Score: 0.5}},
	}}
	r := NewRetriever(searcher, config.DefaultAnveshanaConfig())
	results, err := r.Retrieve(context.Background(), "what's the plan")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].ID)
}

func TestRetrieveMultiQueryBoost(t *testing.T) {
	query := "What decisions about auth affected the API layer and the storage layer?"
	cfg := config.DefaultAnveshanaConfig()
	subs := Decompose(query, cfg)
	require.GreaterOrEqual(t, len(subs), 3)

	byQuery := make(map[string][]hybrid.Result)
	for _, sub := range subs {
		byQuery[sub.Text] = []hybrid.Result{{ID: "shared-doc", Score: 1.0, Text: "shared"}}
	}
	searcher := stubSearcher{byQuery: byQuery}
	r := NewRetriever(searcher, cfg)

	results, err := r.Retrieve(context.Background(), query)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "shared-doc", results[0].ID)
}

func TestRetrieveDeterministic(t *testing.T) {
	query := "difference between plan A and plan B for the release"
	cfg := config.DefaultAnveshanaConfig()
	subs := Decompose(query, cfg)
	byQuery := make(map[string][]hybrid.Result)
	for i, sub := range subs {
		byQuery[sub.Text] = []hybrid.Result{{ID: sub.Text, Score: float64(i + 1)}}
	}
	searcher := stubSearcher{byQuery: byQuery}
	r := NewRetriever(searcher, cfg)

	first, err := r.Retrieve(context.Background(), query)
	require.NoError(t, err)
	second, err := r.Retrieve(context.Background(), query)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
