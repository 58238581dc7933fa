package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/entry-gallery/server/internal/cache"
	"github.com/entry-gallery/server/internal/fetch"
	"github.com/entry-gallery/server/internal/host"
	"github.com/entry-gallery/server/internal/manager"
	"github.com/entry-gallery/server/internal/snapshot"
)

// testServer holds the test server and its dependencies.
type testServer struct {
	server   *httptest.Server
	upstream *httptest.Server
	cache    *cache.Manager
}

// setupTestServer wires a router against a fake remote image service.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/1abc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"1abc": {"entry": {"all": {"image": [
			{"filename": "1abc_deposited_chain"},
			{"filename": "1abc_deposited_chain_side"}
		]}}}}`))
	})
	mux.HandleFunc("/1abc_deposited_chain.molj", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entries": [{"snapshot": {"id": "s1", "camera": {"position": [0, 0, 100]}, "canvas3d": {"props": {}}}}]}`))
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)

	cacheManager, err := cache.NewManager(cache.Config{
		SnapshotCacheSizeMB: 16,
		SnapshotTTL:         5 * time.Minute,
		CatalogCacheSize:    8,
		DescriptionTTL:      time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to initialize cache: %v", err)
	}
	t.Cleanup(func() { cacheManager.Close() })

	client := fetch.NewClient(upstream.URL, 5*time.Second)
	snapshots := snapshot.NewService(client, cacheManager)

	registry := NewEntryRegistry("1abc", []string{"1abc"}, "Test Gallery",
		func(ctx context.Context, entryID string) *manager.Manager {
			return manager.Create(ctx, entryID, client, snapshots, host.LogRenderer{}, cacheManager, manager.Options{})
		})

	router := NewRouter(RouterConfig{
		Registry:    registry,
		Snapshots:   snapshots,
		Cache:       cacheManager,
		CORSOrigins: []string{"http://localhost:3000"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{server: srv, upstream: upstream, cache: cacheManager}
}

func getJSON(t *testing.T, url string, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d, body %s", url, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("GET %s: decode failed: %v", url, err)
	}
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	resp, err := http.Get(ts.server.URL + "/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestEntriesEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var body struct {
		Default string      `json:"default"`
		Entries []EntryInfo `json:"entries"`
		Title   string      `json:"title"`
	}
	getJSON(t, ts.server.URL+"/api/entries", &body)

	if body.Default != "1abc" {
		t.Errorf("expected default 1abc, got %q", body.Default)
	}
	if body.Title != "Test Gallery" {
		t.Errorf("unexpected title %q", body.Title)
	}
	if len(body.Entries) != 1 || body.Entries[0].ID != "1abc" {
		t.Errorf("unexpected entries %+v", body.Entries)
	}
}

func TestEntryImagesEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var body struct {
		Entry  string `json:"entry"`
		Images []struct {
			Filename    string `json:"filename"`
			Category    string `json:"category"`
			SimpleTitle string `json:"simple_title"`
		} `json:"images"`
	}
	getJSON(t, ts.server.URL+"/api/entries/1abc/images", &body)

	if body.Entry != "1abc" {
		t.Errorf("expected entry 1abc, got %q", body.Entry)
	}
	// The _side orientation variant is excluded by default.
	if len(body.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(body.Images))
	}
	img := body.Images[0]
	if img.Filename != "1abc_deposited_chain" || img.Category != "Entry" {
		t.Errorf("unexpected image %+v", img)
	}
	if img.SimpleTitle != "Deposited model (color by chain)" {
		t.Errorf("unexpected title %q", img.SimpleTitle)
	}
}

func TestEntryImagesEndpoint_UnknownEntry(t *testing.T) {
	ts := setupTestServer(t)

	var body struct {
		Images []interface{} `json:"images"`
	}
	getJSON(t, ts.server.URL+"/api/entries/9zzz/images", &body)
	if len(body.Images) != 0 {
		t.Errorf("expected empty catalog for unreachable entry, got %d", len(body.Images))
	}
}

func TestLoadEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Post(ts.server.URL+"/api/entries/1abc/load/1abc_deposited_chain", "", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Status != "completed" {
		t.Errorf("expected completed, got %q", body.Status)
	}

	var state struct {
		Requested *string `json:"requested"`
		Loaded    *string `json:"loaded"`
	}
	getJSON(t, ts.server.URL+"/api/entries/1abc/state", &state)
	if state.Requested == nil || *state.Requested != "1abc_deposited_chain" {
		t.Errorf("unexpected requested state %v", state.Requested)
	}
	if state.Loaded == nil || *state.Loaded != "1abc_deposited_chain" {
		t.Errorf("unexpected loaded state %v", state.Loaded)
	}
}

func TestLoadEndpoint_UpstreamFailure(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Post(ts.server.URL+"/api/entries/1abc/load/missing_snapshot", "", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Status != "failed" {
		t.Errorf("expected failed, got %q", body.Status)
	}
	if body.Error == "" {
		t.Error("expected error message in response")
	}

	// A failed load leaves the loaded name unset.
	var state struct {
		Loaded *string `json:"loaded"`
	}
	getJSON(t, ts.server.URL+"/api/entries/1abc/state", &state)
	if state.Loaded != nil {
		t.Errorf("expected loaded unset after failure, got %v", *state.Loaded)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("sanitizedByDefault", func(t *testing.T) {
		var body struct {
			Entries []struct {
				Snapshot map[string]interface{} `json:"snapshot"`
			} `json:"entries"`
		}
		getJSON(t, ts.server.URL+"/api/snapshots/1abc_deposited_chain", &body)

		if len(body.Entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(body.Entries))
		}
		snap := body.Entries[0].Snapshot
		if _, ok := snap["camera"]; ok {
			t.Error("expected camera stripped by default")
		}
		if _, ok := snap["canvas3d"]; ok {
			t.Error("expected canvas3d stripped by default")
		}
	})

	t.Run("keepFlags", func(t *testing.T) {
		var body struct {
			Entries []struct {
				Snapshot map[string]interface{} `json:"snapshot"`
			} `json:"entries"`
		}
		getJSON(t, ts.server.URL+"/api/snapshots/1abc_deposited_chain?keep_camera=1&keep_background=1", &body)

		snap := body.Entries[0].Snapshot
		if _, ok := snap["camera"]; !ok {
			t.Error("expected camera retained")
		}
		if _, ok := snap["canvas3d"]; !ok {
			t.Error("expected canvas3d retained")
		}
	})
}

func TestSnapshotExportEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.server.URL + "/api/snapshots/1abc_deposited_chain/export")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/zip" {
		t.Errorf("expected application/zip, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "1abc_deposited_chain.molx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(body) < 4 || string(body[:2]) != "PK" {
		t.Error("expected zip archive signature")
	}
}

func TestCacheStatsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	// Prime the snapshot cache.
	http.Get(ts.server.URL + "/api/snapshots/1abc_deposited_chain")

	var stats map[string]interface{}
	getJSON(t, ts.server.URL+"/api/cache/stats", &stats)
	if _, ok := stats["snapshot_cache_len"]; !ok {
		t.Error("expected snapshot_cache_len in stats")
	}
}
