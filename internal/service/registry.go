package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/finsight-labs/conclave/internal/core"
)

// Registry holds the available analysts and their declared metadata.
// Mutation happens only at registration/upgrade time under a coarse lock;
// planning and execution reads take the read lock.
type Registry struct {
	mu         sync.RWMutex
	entries    map[core.AnalystID]*registryEntry
	dependents map[core.AnalystID][]core.AnalystID
	stats      *Stats
}

type registryEntry struct {
	desc *core.AnalystDescriptor
	impl core.Analyst
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:    make(map[core.AnalystID]*registryEntry),
		dependents: make(map[core.AnalystID][]core.AnalystID),
		stats:      NewStats(),
	}
}

// Register adds an analyst. Registering an ID that already exists is
// rejected; use Upgrade for an explicit replace-in-place. A declared
// dependency on an unknown ID is accepted: the edge stays inert and planners
// treat it as already satisfied, so registration order does not matter.
func (r *Registry) Register(desc *core.AnalystDescriptor, impl core.Analyst) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if impl == nil {
		return core.ErrValidation("NIL_ANALYST", fmt.Sprintf("analyst %s has no implementation", desc.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[desc.ID]; ok {
		return core.ErrValidation(core.CodeDuplicateAnalyst,
			fmt.Sprintf("analyst %s already registered (version %s)", desc.ID, existing.desc.Version))
	}
	r.entries[desc.ID] = &registryEntry{desc: desc.Clone(), impl: impl}
	r.recomputeDependents()
	return nil
}

// Upgrade replaces a registered analyst in place. Historical statistics are
// preserved; the running instance is reset to the new implementation.
func (r *Registry) Upgrade(desc *core.AnalystDescriptor, impl core.Analyst) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if impl == nil {
		return core.ErrValidation("NIL_ANALYST", fmt.Sprintf("analyst %s has no implementation", desc.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[desc.ID]; !ok {
		return core.ErrNotFound("analyst", string(desc.ID))
	}
	r.entries[desc.ID] = &registryEntry{desc: desc.Clone(), impl: impl}
	r.recomputeDependents()
	return nil
}

// Get returns a copy of the descriptor and the analyst implementation.
func (r *Registry) Get(id core.AnalystID) (*core.AnalystDescriptor, core.Analyst, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil, false
	}
	return entry.desc.Clone(), entry.impl, true
}

// Descriptor returns the descriptor for an analyst.
func (r *Registry) Descriptor(id core.AnalystID) (*core.AnalystDescriptor, bool) {
	desc, _, ok := r.Get(id)
	return desc, ok
}

// Has reports whether an analyst is registered.
func (r *Registry) Has(id core.AnalystID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// List returns all registered analyst IDs, sorted for determinism.
func (r *Registry) List() []core.AnalystID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]core.AnalystID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Descriptors returns copies of all registered descriptors, sorted by ID.
func (r *Registry) Descriptors() []*core.AnalystDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*core.AnalystDescriptor, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.desc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dependents returns the analysts that declare a dependency on the given ID.
// Reverse edges are recomputed at registration so planners never need a
// second pass to discover them.
func (r *Registry) Dependents(id core.AnalystID) []core.AnalystID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.AnalystID(nil), r.dependents[id]...)
}

// Stats returns the statistics collector shared across upgrades.
func (r *Registry) Stats() *Stats {
	return r.stats
}

// Count returns the number of registered analysts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// recomputeDependents rebuilds the reverse dependency edges.
// Caller must hold the write lock.
func (r *Registry) recomputeDependents() {
	r.dependents = make(map[core.AnalystID][]core.AnalystID, len(r.entries))
	ids := make([]core.AnalystID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		for _, dep := range r.entries[id].desc.Dependencies {
			r.dependents[dep] = append(r.dependents[dep], id)
		}
	}
}
