// Package snapshot retrieves, caches, sanitizes and packages visualization
// snapshot documents.
package snapshot

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/entry-gallery/server/internal/cache"
)

// Fetcher retrieves the raw text of a named snapshot document.
type Fetcher interface {
	SnapshotText(ctx context.Context, name string) ([]byte, error)
}

// Service serves snapshot documents by name, filling the cache lazily.
// Concurrent requests for the same uncached name share one fetch.
type Service struct {
	fetcher Fetcher
	cache   *cache.Manager
	group   singleflight.Group
}

// NewService creates a snapshot service. cache may be nil, in which case
// every Get fetches.
func NewService(fetcher Fetcher, cacheManager *cache.Manager) *Service {
	return &Service{fetcher: fetcher, cache: cacheManager}
}

// Get returns the raw document text for name, from cache when possible.
func (s *Service) Get(ctx context.Context, name string) ([]byte, error) {
	if s.cache != nil {
		if data, ok := s.cache.GetSnapshot(name); ok {
			return data, nil
		}
	}

	v, err, _ := s.group.Do(name, func() (interface{}, error) {
		// Re-check: a concurrent caller may have filled the cache between
		// the miss above and acquiring the flight.
		if s.cache != nil {
			if data, ok := s.cache.GetSnapshot(name); ok {
				return data, nil
			}
		}
		data, err := s.fetcher.SnapshotText(ctx, name)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetSnapshot(name, data); err != nil {
				log.Printf("[Snapshot] failed to cache %q: %v", name, err)
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %q: %w", name, err)
	}
	return v.([]byte), nil
}
