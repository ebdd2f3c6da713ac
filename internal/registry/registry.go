package registry

import "sync"

// Registry is a threadsafe in-memory table of process handles keyed by app
// name. Listing order follows first insertion.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Handle
	order  []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Handle)}
}

// Get returns a copy of the handle for app.
func (r *Registry) Get(app string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h := r.byName[app]
	if h == nil {
		return Handle{}, false
	}
	cp := *h
	return cp, true
}

// Upsert stores a handle under its app name, replacing any previous entry.
// The first insertion fixes the listing position.
func (r *Registry) Upsert(h Handle) {
	r.mu.Lock()
	if _, ok := r.byName[h.App]; !ok {
		r.order = append(r.order, h.App)
	}
	cp := h
	r.byName[h.App] = &cp
	r.mu.Unlock()
}

// Remove deletes the handle for app and reports whether an entry existed.
func (r *Registry) Remove(app string) bool {
	r.mu.Lock()
	if _, ok := r.byName[app]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.byName, app)
	for i, name := range r.order {
		if name == app {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return true
}

// All returns copies of every handle in insertion order.
func (r *Registry) All() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handle, 0, len(r.order))
	for _, name := range r.order {
		if h := r.byName[name]; h != nil {
			cp := *h
			out = append(out, cp)
		}
	}
	return out
}

// Len returns the number of tracked handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
