package items

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the in-memory asset map of item definitions keyed by id.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Item

	readyOnce sync.Once
	ready     chan struct{}

	// Set by Load.
	DefsDigest    string
	PaletteDigest string
}

func NewRegistry() *Registry {
	return &Registry{
		byID:  map[string]*Item{},
		ready: make(chan struct{}),
	}
}

// Put adds an item. Ids are unique; a second Put with the same id fails.
func (r *Registry) Put(it *Item) error {
	if it == nil || it.ID() == "" {
		return fmt.Errorf("put item: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[it.ID()]; ok {
		return fmt.Errorf("put item: duplicate id %q", it.ID())
	}
	r.byID[it.ID()] = it
	return nil
}

func (r *Registry) Get(id string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return it, nil
}

// All returns a snapshot of every item currently held. Order is unspecified.
func (r *Registry) All() ([]*Item, error) {
	if r == nil {
		return nil, fmt.Errorf("item registry unavailable")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Item, 0, len(r.byID))
	for _, it := range r.byID {
		out = append(out, it)
	}
	return out, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// IDs returns the sorted id palette.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ready is closed once the owner has finished populating the registry.
func (r *Registry) Ready() <-chan struct{} {
	if r == nil {
		return nil
	}
	return r.ready
}

func (r *Registry) MarkReady() {
	r.readyOnce.Do(func() { close(r.ready) })
}
