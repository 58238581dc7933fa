// Package manager provides the per-entry gallery façade: an immutable image
// catalog plus coordinated snapshot loading with latest-request-wins
// semantics.
package manager

import (
	"context"
	"log"
	"sync"

	"github.com/entry-gallery/server/internal/cache"
	"github.com/entry-gallery/server/internal/flight"
	"github.com/entry-gallery/server/internal/gallery"
	"github.com/entry-gallery/server/internal/host"
	"github.com/entry-gallery/server/internal/snapshot"
	"github.com/entry-gallery/server/pkg/observable"
)

// DescriptionFetcher retrieves the raw gallery description for an entry.
type DescriptionFetcher interface {
	EntryDescription(ctx context.Context, entryID string) (*gallery.Description, error)
}

// Options configure a manager.
type Options struct {
	// ExcludeSuffixes drops images whose filename ends with any of these
	// suffixes. Nil means the default set (orientation variants _side, _top).
	ExcludeSuffixes []string
	// KeepCameraOrientation preserves the host's camera across loads: the
	// camera field survives sanitization and no reset is issued after apply.
	KeepCameraOrientation bool
}

// Manager owns the image catalog for one entry and coordinates snapshot
// loads against the rendering host. The catalog is built once at creation
// and immutable afterwards.
type Manager struct {
	entryID   string
	images    []gallery.CatalogImage
	host      host.Renderer
	snapshots *snapshot.Service
	queue     *flight.Queue

	// stateMu orders the requested/loaded transitions: Load's set/clear
	// pair and runLoad's check-then-set are each atomic under it, so the
	// loaded name can never go stale against a newer request.
	stateMu   sync.Mutex
	requested observable.Value[string]
	loaded    observable.Value[string]

	keepCamera bool
}

// Create builds a manager for one entry. It fetches the entry description,
// builds the catalog with the configured suffix exclusions and wires the
// load queue. Creation never fails: a fetch or parse failure yields an empty
// catalog and a logged diagnostic. cacheManager may be nil.
func Create(ctx context.Context, entryID string, fetcher DescriptionFetcher, snapshots *snapshot.Service, renderer host.Renderer, cacheManager *cache.Manager, opts Options) *Manager {
	suffixes := opts.ExcludeSuffixes
	if suffixes == nil {
		suffixes = gallery.DefaultExcludedSuffixes
	}

	m := &Manager{
		entryID:    entryID,
		images:     catalogFor(ctx, entryID, fetcher, cacheManager, suffixes),
		host:       renderer,
		snapshots:  snapshots,
		keepCamera: opts.KeepCameraOrientation,
	}
	m.queue = flight.NewQueue(m.runLoad)
	return m
}

func catalogFor(ctx context.Context, entryID string, fetcher DescriptionFetcher, cacheManager *cache.Manager, suffixes []string) []gallery.CatalogImage {
	key := cache.CatalogKey(entryID, suffixes)
	if cacheManager != nil {
		if images, ok := cacheManager.GetCatalog(key); ok {
			return images
		}
	}

	desc, ok := description(ctx, entryID, fetcher, cacheManager)
	if !ok {
		return []gallery.CatalogImage{}
	}

	images := gallery.ExcludeSuffixes(gallery.BuildCatalog(desc), suffixes)
	if cacheManager != nil {
		cacheManager.SetCatalog(key, images)
	}
	return images
}

func description(ctx context.Context, entryID string, fetcher DescriptionFetcher, cacheManager *cache.Manager) (*gallery.Description, bool) {
	if cacheManager != nil {
		if desc, ok := cacheManager.GetDescription(entryID); ok {
			return desc, true
		}
	}
	desc, err := fetcher.EntryDescription(ctx, entryID)
	if err != nil {
		log.Printf("[Gallery] no images for entry %q: %v", entryID, err)
		return nil, false
	}
	if cacheManager != nil {
		cacheManager.SetDescription(entryID, desc)
	}
	return desc, true
}

// EntryID returns the entry this manager serves.
func (m *Manager) EntryID() string {
	return m.entryID
}

// Images returns the built catalog. Callers must not modify it.
func (m *Manager) Images() []gallery.CatalogImage {
	return m.images
}

// Requested returns the name of the most recently requested snapshot.
func (m *Manager) Requested() (string, bool) {
	return m.requested.Get()
}

// Loaded returns the name of the snapshot currently applied to the host, if
// any. Unset while a load is pending or after a failure.
func (m *Manager) Loaded() (string, bool) {
	return m.loaded.Get()
}

// SubscribeRequested registers a callback for requested-name changes and
// returns an unsubscribe function.
func (m *Manager) SubscribeRequested(fn func(name string, ok bool)) func() {
	return m.requested.Subscribe(fn)
}

// SubscribeLoaded registers a callback for loaded-name changes and returns
// an unsubscribe function.
func (m *Manager) SubscribeLoaded(fn func(name string, ok bool)) func() {
	return m.loaded.Subscribe(fn)
}

// Load requests that the named snapshot be applied to the host. The
// requested-name state updates synchronously and the loaded-name state is
// cleared before the request is queued. At most one load runs at a time;
// under rapid repeated calls only the most recent name is honored, and
// displaced calls return a superseded result promptly. The loaded-name state
// is set again only by a run that finished while its name was still the
// latest requested.
func (m *Manager) Load(ctx context.Context, name string) flight.Result {
	m.stateMu.Lock()
	m.requested.Set(name)
	m.loaded.Clear()
	m.stateMu.Unlock()
	return m.queue.Request(ctx, name)
}

// runLoad executes one honored load: sanitized snapshot text, apply to the
// host, camera reset unless orientation is retained, commit. A run whose
// name is no longer the latest requested when it finishes reports itself
// superseded so its loaded-name update is suppressed.
func (m *Manager) runLoad(ctx context.Context, name string) error {
	text, err := m.snapshots.Get(ctx, name)
	if err != nil {
		return err
	}

	sanitized, err := snapshot.Sanitize(text, snapshot.SanitizeOptions{
		RemoveBackground: true,
		RemoveCamera:     !m.keepCamera,
	})
	if err != nil {
		return err
	}

	if err := m.host.OpenSnapshot(ctx, name, sanitized); err != nil {
		return err
	}
	if !m.keepCamera {
		if err := m.host.ResetCamera(ctx); err != nil {
			return err
		}
	}
	if err := m.host.Commit(ctx); err != nil {
		return err
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if current, ok := m.requested.Get(); !ok || current != name {
		return flight.ErrSuperseded
	}
	m.loaded.Set(name)
	return nil
}
