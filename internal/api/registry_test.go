package api

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/entry-gallery/server/internal/gallery"
	"github.com/entry-gallery/server/internal/host"
	"github.com/entry-gallery/server/internal/manager"
	"github.com/entry-gallery/server/internal/snapshot"
)

type stubFetcher struct{}

func (stubFetcher) EntryDescription(ctx context.Context, entryID string) (*gallery.Description, error) {
	return &gallery.Description{}, nil
}

func (stubFetcher) SnapshotText(ctx context.Context, name string) ([]byte, error) {
	return []byte(`{"entries": []}`), nil
}

func newRegistryTestManager(entryID string) *manager.Manager {
	return manager.Create(context.Background(), entryID, stubFetcher{},
		snapshot.NewService(stubFetcher{}, nil), host.LogRenderer{}, nil, manager.Options{})
}

func TestEntryRegistry_SlowCreationDoesNotBlockOtherEntries(t *testing.T) {
	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})

	registry := NewEntryRegistry("fast", []string{"fast", "slow"}, "",
		func(ctx context.Context, entryID string) *manager.Manager {
			if entryID == "slow" {
				close(slowStarted)
				<-slowRelease
			}
			return newRegistryTestManager(entryID)
		})

	done := make(chan struct{})
	go func() {
		registry.Get(context.Background(), "slow")
		close(done)
	}()
	<-slowStarted

	// While the slow entry's description fetch is in flight, other entries
	// and the entry listing must stay reachable.
	fastDone := make(chan *manager.Manager, 1)
	go func() { fastDone <- registry.Get(context.Background(), "fast") }()
	select {
	case m := <-fastDone:
		if m == nil {
			t.Fatal("expected a manager for the fast entry")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Get for another entry blocked behind a slow creation")
	}

	entriesDone := make(chan []EntryInfo, 1)
	go func() { entriesDone <- registry.Entries() }()
	select {
	case infos := <-entriesDone:
		if len(infos) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(infos))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Entries blocked behind a slow creation")
	}

	close(slowRelease)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("slow creation never finished")
	}
}

func TestEntryRegistry_ConcurrentGetsShareOneCreation(t *testing.T) {
	var creations int32
	registry := NewEntryRegistry("1abc", []string{"1abc"}, "",
		func(ctx context.Context, entryID string) *manager.Manager {
			atomic.AddInt32(&creations, 1)
			time.Sleep(20 * time.Millisecond)
			return newRegistryTestManager(entryID)
		})

	var wg sync.WaitGroup
	results := make([]*manager.Manager, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = registry.Get(context.Background(), "1abc")
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&creations); n != 1 {
		t.Errorf("expected 1 creation across concurrent gets, got %d", n)
	}
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("expected all callers to receive the same manager")
		}
	}

	// A later Get reuses the materialized manager without re-creating.
	if registry.Get(context.Background(), "1abc") != results[0] {
		t.Error("expected the cached manager on a later get")
	}
	if n := atomic.LoadInt32(&creations); n != 1 {
		t.Errorf("expected no additional creation, got %d", n)
	}
}
