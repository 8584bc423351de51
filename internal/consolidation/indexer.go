package consolidation

import (
	"context"

	"github.com/sriinnu/chitragupta/internal/embedding"
	"github.com/sriinnu/chitragupta/internal/idgen"
	"github.com/sriinnu/chitragupta/internal/vectorstore"
)

// Indexer embeds each written Summary's high-signal excerpt and upserts it
// into the shared vector store, keyed so that a re-run of the same period
// replaces rather than duplicates the entry.
type Indexer struct {
	Embedder embedding.Provider
	Vectors  *vectorstore.Store
}

// NewIndexer wires an embedding provider and the shared vector store.
func NewIndexer(embedder embedding.Provider, vectors *vectorstore.Store) *Indexer {
	return &Indexer{Embedder: embedder, Vectors: vectors}
}

func (ix *Indexer) kindFor(level SummaryLevel) vectorstore.Kind {
	switch level {
	case LevelMonth:
		return vectorstore.KindMonthlySummary
	case LevelYear:
		return vectorstore.KindYearlySummary
	default:
		return vectorstore.KindDailySummary
	}
}

// refID builds the embedding's id, deterministic in (level, period, project)
// so indexing the same period twice updates the existing row.
func (ix *Indexer) refID(s Summary) string {
	return idgen.DeterministicID("cix", string(s.Level), s.PeriodKey+"\x00"+s.Project, 10)
}

// Index embeds s.IndexedText and upserts it into the vector store. A nil or
// unconfigured Embedder is a caller error - the pipeline is expected to
// always supply one, falling back to embedding.HashTrickProvider when no
// hosted provider is configured.
func (ix *Indexer) Index(ctx context.Context, s Summary) error {
	vectors, err := ix.Embedder.Embed(ctx, []string{s.IndexedText})
	if err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}
	id := ix.refID(s)
	return ix.Vectors.Upsert(ctx, id, ix.kindFor(s.Level), id, s.IndexedText, vectors[0])
}
