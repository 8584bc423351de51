package memoryfile

import (
	"context"
	"sync"

	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/session"
)

// Manager is the entry point memory-scoped reads and writes go through. It
// owns one scopeWorker per scope (lazily started) and a read-through Cache
// that Append invalidates on success and a Watcher invalidates on an
// externally-made edit.
type Manager struct {
	home  *layout.Home
	cache *Cache

	mu      sync.Mutex
	workers map[string]*scopeWorker
}

// NewManager wires a Manager rooted at home.
func NewManager(home *layout.Home) *Manager {
	return &Manager{
		home:    home,
		cache:   NewCache(),
		workers: make(map[string]*scopeWorker),
	}
}

// Read returns scope's current content, serving from cache when fresh.
func (m *Manager) Read(ctx context.Context, scope session.MemoryScope) (string, error) {
	path, err := PathFor(m.home, scope)
	if err != nil {
		return "", err
	}
	if content, ok := m.cache.Get(path); ok {
		return content, nil
	}
	content, err := readFile(path)
	if err != nil {
		return "", err
	}
	m.cache.Put(path, content)
	return content, nil
}

// Append enqueues entry onto scope's write mailbox and blocks for the
// result. Concurrent appends to the same scope are serialised in arrival
// order; appends to distinct scopes proceed independently. If ctx is
// cancelled before the request is dequeued, it is dropped unrun and Append
// returns ctx.Err().
func (m *Manager) Append(ctx context.Context, scope session.MemoryScope, entry string) error {
	path, err := PathFor(m.home, scope)
	if err != nil {
		return err
	}
	header := DefaultHeader(scope)

	w := m.workerFor(scope)
	done := w.submit(ctx, func() error {
		return appendEntry(path, header, entry)
	})

	select {
	case err := <-done:
		if err == nil {
			m.cache.Evict(path)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invalidate drops path's cached content. The Watcher calls this when
// fsnotify reports a write to a memory file this Manager did not itself
// perform.
func (m *Manager) Invalidate(path string) {
	m.cache.Evict(path)
}

func (m *Manager) workerFor(scope session.MemoryScope) *scopeWorker {
	key := scopeKey(scope)
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[key]
	if !ok {
		w = newScopeWorker()
		m.workers[key] = w
	}
	return w
}

// Close stops every scope worker. Pending requests already accepted onto a
// mailbox still run; only the consuming goroutines are torn down.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workers {
		w.close()
	}
}
