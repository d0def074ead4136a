package cache

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/stacks/internal/shared"
)

// Summary is a type-erased view of a dataset for listings.
type Summary struct {
	Key       string        `json:"key"`
	Cached    bool          `json:"cached"`
	Valid     bool          `json:"valid"`
	Loading   bool          `json:"loading"`
	FetchedAt time.Time     `json:"fetchedAt,omitzero"`
	Age       time.Duration `json:"age"`
	Error     string        `json:"error,omitempty"`
	Stats     Stats         `json:"stats"`
}

// Store is what the registry needs from a dataset.
type Store interface {
	Key() string
	Clear()
	Summary() Summary
}

// Registry groups datasets of different types so they can be cleared by name.
type Registry struct {
	mu    sync.RWMutex
	sets  map[string]Store
	order []string
}

func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]Store)}
}

// Register adds s, replacing any dataset with the same key.
func (r *Registry) Register(s Store) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sets[s.Key()]; !ok {
		r.order = append(r.order, s.Key())
	}
	r.sets[s.Key()] = s
}

// Clear resets the dataset named key.
func (r *Registry) Clear(key string) error {
	r.mu.RLock()
	s, ok := r.sets[key]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: unknown dataset %q (have %v)", shared.ErrInvalidArgument, key, r.Keys())
	}
	s.Clear()
	return nil
}

// ClearAll resets every dataset.
func (r *Registry) ClearAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range r.order {
		r.sets[key].Clear()
	}
}

// Keys returns dataset names in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Summaries describes every dataset in registration order.
func (r *Registry) Summaries() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.sets[key].Summary())
	}
	return out
}
