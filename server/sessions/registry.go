// Package sessions manages constrained-generation sessions for the
// constraint server: the durable dao.Session bookkeeping row, plus the live
// *earley.Parser each open session drives. The parser itself never leaves
// process memory and is never serialized, per dao.Session's documented
// contract.
package sessions

import (
	"sync"

	"github.com/dekarrin/earley/internal/earley"
	"github.com/google/uuid"
)

// live is one session's in-process parse state: the parser itself and the
// token trie it was opened with (a session's vocabulary is fixed for its
// lifetime).
type live struct {
	parser *earley.Parser
	trie   earley.Trie
}

// Registry holds every open session's live parser. A server restart loses
// every entry here; the durable dao.Session rows survive, but the sessions
// they describe can no longer be advanced and must be treated as dead by
// callers (Get reports ok=false).
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]live
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]live)}
}

// Put registers the live parser and trie for an opened session.
func (r *Registry) Put(id uuid.UUID, p *earley.Parser, trie earley.Trie) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = live{parser: p, trie: trie}
}

// Get returns the live parser and trie for id, if a session is still open
// for it in this process.
func (r *Registry) Get(id uuid.UUID) (*earley.Parser, earley.Trie, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.entries[id]
	if !ok {
		return nil, nil, false
	}
	return l.parser, l.trie, true
}

// Delete removes id's live parser, if any. Safe to call whether or not the
// session was registered.
func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of sessions currently live in this process.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
