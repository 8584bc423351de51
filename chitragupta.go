// Package chitragupta wires the memory subsystem's components into a
// single Engine: the Session Store, Hybrid Search, Multi-Round Retrieval,
// the bi-temporal Graph, and the Consolidation Pipeline, plus the
// supporting collaborators (memory files, checkpoints, the sleep daemon,
// recognition cache) that sit around them. Most callers only need Open and
// the handful of methods on Engine; direct access to a subsystem's own
// package remains available for callers who want finer control.
package chitragupta

import (
	"context"
	"fmt"
	"time"

	"github.com/sriinnu/chitragupta/internal/anveshana"
	"github.com/sriinnu/chitragupta/internal/checkpoint"
	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/consolidation"
	"github.com/sriinnu/chitragupta/internal/embedding"
	"github.com/sriinnu/chitragupta/internal/eventbus"
	"github.com/sriinnu/chitragupta/internal/graph"
	"github.com/sriinnu/chitragupta/internal/hybrid"
	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/memoryfile"
	"github.com/sriinnu/chitragupta/internal/narrative"
	"github.com/sriinnu/chitragupta/internal/navarasa"
	"github.com/sriinnu/chitragupta/internal/nidra"
	"github.com/sriinnu/chitragupta/internal/policy"
	"github.com/sriinnu/chitragupta/internal/pratyabhijna"
	"github.com/sriinnu/chitragupta/internal/samskara"
	"github.com/sriinnu/chitragupta/internal/session"
	"github.com/sriinnu/chitragupta/internal/smaran"
	"github.com/sriinnu/chitragupta/internal/vasana"
	"github.com/sriinnu/chitragupta/internal/vectorstore"
)

// Re-exported core types, so a caller importing only this package can name
// a Session, Turn, or MemoryScope without a second import.
type (
	Session      = session.Session
	Turn         = session.Turn
	ToolCall     = session.ToolCall
	SessionMeta  = session.SessionMeta
	MemoryScope  = session.MemoryScope
	CreateOptions = session.CreateOptions
	Result       = hybrid.Result
)

// Scope constructors mirroring session.ScopeVariant, so callers never need
// to import internal/session directly for the common case.
func GlobalScope() MemoryScope                { return MemoryScope{Variant: session.ScopeGlobal} }
func ProjectScope(projectHash string) MemoryScope { return MemoryScope{Variant: session.ScopeProject, Key: projectHash} }
func AgentScope(agentID string) MemoryScope    { return MemoryScope{Variant: session.ScopeAgent, Key: agentID} }
func SessionScope(sessionID string) MemoryScope { return MemoryScope{Variant: session.ScopeSession, Key: sessionID} }

// Engine is the assembled memory subsystem rooted at a single home
// directory. Construct one with Open; call Close when done to release the
// SQLite connections its stores hold and stop background workers.
type Engine struct {
	Home   *layout.Home
	Config config.Config

	Sessions *session.Store
	Graph    *graph.Store

	Vectors  *vectorstore.Store
	Embedder embedding.Provider

	Search    *hybrid.Searcher
	Retriever *anveshana.Retriever

	Smaran       *smaran.Engine
	SmaranStore  *smaran.Store
	Vasanas      *vasana.Store
	VasanaEngine *vasana.Engine
	Samskaras    *samskara.Store
	SamskaraEngine *samskara.Engine
	NavaRasa     *navarasa.State

	Memory      *memoryfile.Manager
	MemoryWatch *memoryfile.Watcher
	Checkpoints *checkpoint.Store

	Consolidation *consolidation.Pipeline
	Pratyabhijna  *pratyabhijna.Builder
	PratyabhijnaStore *pratyabhijna.Store
	PratyabhijnaCache *pratyabhijna.Cache

	Events *eventbus.Bus
	Sleep  *nidra.Machine
	Policy policy.Engine

	closers []func() error
}

// Options lets a caller override any collaborator that is normally external
// to the core (embedding provider, narrator, policy engine). A nil field
// falls back to the hash-trick embedder, a no-op narrator, and AllowAll.
type Options struct {
	Config   config.Config
	Embedder embedding.Provider
	Narrator narrative.Narrator
	Policy   policy.Engine
}

// Open assembles an Engine rooted at homeDir, opening (and creating, if
// absent) its three WAL-mode SQLite databases and ensuring its directory
// tree exists. The returned Engine owns those connections; call Close to
// release them.
func Open(ctx context.Context, homeDir string, opts Options) (*Engine, error) {
	home := layout.NewHome(homeDir)
	if err := home.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("chitragupta: %w", err)
	}

	cfg := opts.Config
	if (cfg == config.Config{}) {
		cfg = config.Default()
	}
	cfg = cfg.Clamp()

	e := &Engine{Home: home, Config: cfg, Events: eventbus.New()}

	sessions, err := session.Open(ctx, home)
	if err != nil {
		return nil, fmt.Errorf("chitragupta: open sessions: %w", err)
	}
	e.Sessions = sessions
	e.closers = append(e.closers, sessions.Close)

	graphStore, err := graph.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open graph: %w", err)
	}
	e.Graph = graphStore
	e.closers = append(e.closers, graphStore.Close)

	vectors, err := vectorstore.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open vectors: %w", err)
	}
	e.Vectors = vectors
	e.closers = append(e.closers, vectors.Close)

	smaranStore, err := smaran.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open smaran: %w", err)
	}
	e.SmaranStore = smaranStore
	e.Smaran = smaran.NewEngine(smaranStore)
	e.closers = append(e.closers, smaranStore.Close)

	vasanaStore, err := vasana.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open vasana: %w", err)
	}
	e.Vasanas = vasanaStore
	e.VasanaEngine = vasana.NewEngine(cfg.Vasana)
	e.closers = append(e.closers, vasanaStore.Close)

	samskaraStore, err := samskara.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open samskara: %w", err)
	}
	e.Samskaras = samskaraStore
	e.SamskaraEngine = samskara.NewEngine(samskara.DefaultConfig())
	e.closers = append(e.closers, samskaraStore.Close)

	pratyabhijnaStore, err := pratyabhijna.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open pratyabhijna: %w", err)
	}
	e.PratyabhijnaStore = pratyabhijnaStore
	e.PratyabhijnaCache = pratyabhijna.NewCache()
	e.closers = append(e.closers, pratyabhijnaStore.Close)

	consolSummaries, err := consolidation.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open consolidation summaries: %w", err)
	}
	e.closers = append(e.closers, consolSummaries.Close)

	nidraStore, err := nidra.Open(ctx, home)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open nidra: %w", err)
	}
	e.closers = append(e.closers, nidraStore.Close)

	e.Embedder = opts.Embedder
	if e.Embedder == nil {
		e.Embedder = embedding.NewHashTrickProvider(256)
	}

	e.Policy = opts.Policy
	if e.Policy == nil {
		e.Policy = policy.AllowAll{}
	}

	narrator := opts.Narrator
	if narrator == nil {
		narrator = narrative.NoopNarrator{}
	}

	indexer := consolidation.NewIndexer(e.Embedder, e.Vectors)
	e.Consolidation = consolidation.NewPipeline(home, e.Sessions, consolSummaries, indexer,
		e.Samskaras, e.SamskaraEngine, e.Vasanas, e.VasanaEngine)

	lexical := hybrid.LexicalSignal{Source: e.Sessions}
	vectorSignal := hybrid.VectorSignal{Embedder: e.Embedder, Store: e.Vectors}
	graphSignal := hybrid.GraphSignal{Store: e.Graph}
	provenanceSignal := hybrid.ProvenanceSignal{Store: e.Graph}
	e.Search = hybrid.NewSearcher(lexical, vectorSignal, graphSignal, provenanceSignal, nil)
	e.Retriever = anveshana.NewRetriever(e.Search, cfg.Anveshana)

	e.NavaRasa = navarasa.NewState(cfg.NavaRasa)

	e.Pratyabhijna = pratyabhijna.NewBuilder(e.Vasanas, e.Samskaras, atmaReportAdapter{e.Sessions}, narrator, cfg.Vasana, 5)

	e.Memory = memoryfile.NewManager(home)
	watcher, err := memoryfile.NewWatcher(home, e.Memory)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("chitragupta: open memory watcher: %w", err)
	}
	e.MemoryWatch = watcher
	go watcher.Run()

	e.Checkpoints = checkpoint.NewStore(home, cfg.MaxCheckpoints)

	e.Sleep = nidra.New(cfg.Nidra, e.Events, func(dreamCtx context.Context) error {
		_, err := e.Consolidation.RunDay(dreamCtx, time.Now().UTC(), false)
		return err
	}, time.Now)
	if phase, enteredAt, ok, err := nidraStore.Load(ctx); err == nil && ok {
		e.Sleep = nidra.Restore(cfg.Nidra, e.Events, func(dreamCtx context.Context) error {
			_, err := e.Consolidation.RunDay(dreamCtx, time.Now().UTC(), false)
			return err
		}, time.Now, phase, time.Since(enteredAt))
	}

	return e, nil
}

// Close releases every resource Open acquired, in reverse order, continuing
// past individual failures and returning the first error seen.
func (e *Engine) Close() error {
	if e.MemoryWatch != nil {
		e.MemoryWatch.Stop()
	}
	if e.Memory != nil {
		e.Memory.Close()
	}
	if e.Sleep != nil {
		e.Sleep.Dispose()
	}

	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// atmaReportAdapter satisfies pratyabhijna.AtmaReport. It always reports an
// empty tool-mastery map; the session store it holds is not consulted.
type atmaReportAdapter struct {
	sessions *session.Store
}

func (a atmaReportAdapter) ToolMastery(ctx context.Context, project string) (map[string]pratyabhijna.ToolMastery, error) {
	return map[string]pratyabhijna.ToolMastery{}, nil
}
