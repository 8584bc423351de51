package anveshana

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/config"
)

func TestIsComplexWordCount(t *testing.T) {
	cfg := config.DefaultAnveshanaConfig()
	require.False(t, IsComplex("what did we decide", cfg))
	require.True(t, IsComplex("what decisions did we make about authentication and the api layer", cfg))
}

func TestDecomposeConjunctionQuery(t *testing.T) {
	cfg := config.DefaultAnveshanaConfig()
	query := "What decisions about auth affected the API layer and the storage layer?"
	subs := Decompose(query, cfg)
	require.GreaterOrEqual(t, len(subs), 3)
	require.Equal(t, query, subs[0].Text)
	require.Equal(t, 1.0, subs[0].Weight)
	for _, s := range subs[1:] {
		require.GreaterOrEqual(t, s.Weight, 0.4)
		require.Less(t, s.Weight, 1.0)
	}
}

func TestDecomposeComparative(t *testing.T) {
	cfg := config.DefaultAnveshanaConfig()
	subs := Decompose("Postgres vs SQLite for this workload", cfg)
	require.GreaterOrEqual(t, len(subs), 2)
}

func TestDecomposeSimpleQueryReturnsOriginalOnly(t *testing.T) {
	cfg := config.DefaultAnveshanaConfig()
	subs := Decompose("what's the plan", cfg)
	require.Len(t, subs, 1)
	require.Equal(t, "what's the plan", subs[0].Text)
}

func TestDecomposeCapsAtMaxSubQueries(t *testing.T) {
	cfg := config.DefaultAnveshanaConfig()
	cfg.MaxSubQueries = 2
	query := "alpha, beta, and gamma and delta and epsilon and zeta"
	subs := Decompose(query, cfg)
	require.LessOrEqual(t, len(subs), 2)
	require.Equal(t, query, subs[0].Text)
}

func TestFollowUpTermsExcludesQueriedAndPresent(t *testing.T) {
	cfg := config.DefaultAnveshanaConfig()
	terms := FollowUpTerms("tell me about the storage migration plan", "the storage layer is done", []string{"migration"}, cfg)
	for _, term := range terms {
		require.NotEqual(t, "migration", term)
		require.NotEqual(t, "storage", term)
	}
}
