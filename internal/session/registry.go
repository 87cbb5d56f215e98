// Package session keeps one task store per viewing session.
package session

import (
	"slices"
	"sync"

	"github.com/ldi/taskake/internal/store"
)

// DefaultID is used when a caller does not name a session.
const DefaultID = "default"

// Factory creates the store for a new session.
type Factory func(id string) *store.TaskStore

// Registry provides thread-safe lazy creation and teardown of sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*store.TaskStore
	factory  Factory
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		sessions: make(map[string]*store.TaskStore),
		factory:  factory,
	}
}

// Get returns the store for id, creating it on first use. An empty id means
// DefaultID.
func (r *Registry) Get(id string) *store.TaskStore {
	if id == "" {
		id = DefaultID
	}

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = r.factory(id)
	r.sessions[id] = s
	return s
}

// Lookup returns the store for id without creating one.
func (r *Registry) Lookup(id string) (*store.TaskStore, bool) {
	if id == "" {
		id = DefaultID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close tears down and forgets the session. It reports whether it existed.
func (r *Registry) Close(id string) bool {
	if id == "" {
		id = DefaultID
	}
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// CloseAll tears down every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*store.TaskStore)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// IDs returns the open session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
