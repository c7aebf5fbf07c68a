// Package registry tracks the identities of connections that hold a joined
// session. It is owned by the server and injected into every session.
package registry

import (
	"sort"
	"strings"
	"sync"
)

// Registry is a mutex-guarded identity set. The lock is held only for the
// set operation itself.
type Registry struct {
	mu    sync.Mutex
	items map[string]struct{}
}

func New() *Registry {
	return &Registry{
		items: make(map[string]struct{}),
	}
}

// TryRegister inserts id and reports whether it was absent. The membership
// check and the insert happen under one lock, so two callers racing on the
// same id never both get true.
func (r *Registry) TryRegister(id string) bool {
	key := strings.TrimSpace(id)
	if key == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[key]; ok {
		return false
	}
	r.items[key] = struct{}{}
	return true
}

func (r *Registry) Unregister(id string) {
	key := strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key)
}

func (r *Registry) Contains(id string) bool {
	key := strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[key]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// List returns a sorted snapshot of registered identities.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for id := range r.items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
