// Package cache provides caching for snapshot documents, built catalogs and
// fetched entry descriptions.
package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/entry-gallery/server/internal/gallery"
)

// Config contains cache configuration.
type Config struct {
	SnapshotCacheSizeMB int
	SnapshotTTL         time.Duration
	CatalogCacheSize    int
	DescriptionTTL      time.Duration
}

// Manager manages the snapshot, catalog and description caches. Snapshot
// documents are bytes in a sharded byte cache; built catalogs sit in an LRU
// keyed by entry and suffix set; raw descriptions expire on a TTL so a
// re-created manager picks up remote updates.
type Manager struct {
	snapshots    *bigcache.BigCache
	catalogs     *lru.Cache[string, []gallery.CatalogImage]
	descriptions *gocache.Cache
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	snapshotConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.SnapshotTTL,
		CleanWindow:        cfg.SnapshotTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       1024 * 1024, // 1MB per snapshot document
		HardMaxCacheSize:   cfg.SnapshotCacheSizeMB,
		Verbose:            false,
	}

	snapshots, err := bigcache.New(context.Background(), snapshotConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	catalogs, err := lru.New[string, []gallery.CatalogImage](cfg.CatalogCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	descriptions := gocache.New(cfg.DescriptionTTL, 2*cfg.DescriptionTTL)

	return &Manager{
		snapshots:    snapshots,
		catalogs:     catalogs,
		descriptions: descriptions,
	}, nil
}

// GetSnapshot retrieves a snapshot document from cache.
func (m *Manager) GetSnapshot(name string) ([]byte, bool) {
	data, err := m.snapshots.Get(name)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetSnapshot stores a snapshot document in cache.
func (m *Manager) SetSnapshot(name string, data []byte) error {
	return m.snapshots.Set(name, data)
}

// GetCatalog retrieves a built catalog from cache.
func (m *Manager) GetCatalog(key string) ([]gallery.CatalogImage, bool) {
	return m.catalogs.Get(key)
}

// SetCatalog stores a built catalog in cache.
func (m *Manager) SetCatalog(key string, images []gallery.CatalogImage) {
	m.catalogs.Add(key, images)
}

// GetDescription retrieves a fetched entry description from cache.
func (m *Manager) GetDescription(entryID string) (*gallery.Description, bool) {
	v, ok := m.descriptions.Get(entryID)
	if !ok {
		return nil, false
	}
	desc, ok := v.(*gallery.Description)
	return desc, ok
}

// SetDescription stores a fetched entry description in cache.
func (m *Manager) SetDescription(entryID string, desc *gallery.Description) {
	m.descriptions.Set(entryID, desc, gocache.DefaultExpiration)
}

// CatalogKey generates a cache key for a built catalog. The excluded suffix
// set is part of the key so catalogs built with different exclusions do not
// collide.
func CatalogKey(entryID string, excludeSuffixes []string) string {
	base := "catalog:" + entryID
	if len(excludeSuffixes) == 0 {
		return base
	}
	sorted := make([]string, len(excludeSuffixes))
	copy(sorted, excludeSuffixes)
	sort.Strings(sorted)
	return base + ":" + strings.Join(sorted, ",")
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"snapshot_cache_len":    m.snapshots.Len(),
		"snapshot_cache_cap":    m.snapshots.Capacity(),
		"catalog_cache_len":     m.catalogs.Len(),
		"description_cache_len": m.descriptions.ItemCount(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.snapshots.Close()
}
