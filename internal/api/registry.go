package api

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/entry-gallery/server/internal/manager"
)

// EntryInfo contains information about an entry for the API response.
type EntryInfo struct {
	ID         string `json:"id"`
	ImageCount int    `json:"image_count"`
}

// ManagerFactory creates a gallery manager for an entry id.
type ManagerFactory func(ctx context.Context, entryID string) *manager.Manager

// EntryRegistry holds gallery managers per entry, creating them lazily on
// first use. Creation never fails (an unreachable entry gets an empty
// catalog), so a manager handed out once is reused for the registry's
// lifetime.
type EntryRegistry struct {
	mu       sync.Mutex
	managers map[string]*manager.Manager
	creating singleflight.Group

	factory      ManagerFactory
	defaultEntry string
	entryOrder   []string
	title        string
}

// NewEntryRegistry creates a new entry registry.
func NewEntryRegistry(defaultEntry string, order []string, title string, factory ManagerFactory) *EntryRegistry {
	return &EntryRegistry{
		managers:     make(map[string]*manager.Manager),
		factory:      factory,
		defaultEntry: defaultEntry,
		entryOrder:   order,
		title:        title,
	}
}

// Get returns the manager for an entry, creating it on first use. The
// factory runs outside the registry lock so a slow description fetch for one
// entry never blocks access to others; concurrent first requests for the
// same entry share one creation.
func (r *EntryRegistry) Get(ctx context.Context, entryID string) *manager.Manager {
	r.mu.Lock()
	if m, ok := r.managers[entryID]; ok {
		r.mu.Unlock()
		return m
	}
	r.mu.Unlock()

	v, _, _ := r.creating.Do(entryID, func() (interface{}, error) {
		r.mu.Lock()
		if m, ok := r.managers[entryID]; ok {
			r.mu.Unlock()
			return m, nil
		}
		r.mu.Unlock()

		m := r.factory(ctx, entryID)

		r.mu.Lock()
		r.managers[entryID] = m
		r.mu.Unlock()
		return m, nil
	})
	return v.(*manager.Manager)
}

// DefaultEntryID returns the default entry id.
func (r *EntryRegistry) DefaultEntryID() string {
	return r.defaultEntry
}

// Title returns the configured site title.
func (r *EntryRegistry) Title() string {
	if r.title != "" {
		return r.title
	}
	return "Entry Gallery"
}

// Entries returns entry info for all pre-declared entries. Managers for them
// are created on demand, so image counts are only reported for entries
// already materialized.
func (r *EntryRegistry) Entries() []EntryInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]EntryInfo, 0, len(r.entryOrder))
	for _, id := range r.entryOrder {
		info := EntryInfo{ID: id}
		if m, ok := r.managers[id]; ok {
			info.ImageCount = len(m.Images())
		}
		infos = append(infos, info)
	}
	return infos
}
