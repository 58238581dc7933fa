// Package api provides HTTP handlers for the entry gallery server.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/entry-gallery/server/internal/cache"
	"github.com/entry-gallery/server/internal/flight"
	"github.com/entry-gallery/server/internal/snapshot"
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	Registry    *EntryRegistry
	Snapshots   *snapshot.Service
	Cache       *cache.Manager
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Global entries endpoint
	r.Get("/api/entries", entriesHandler(cfg.Registry))

	// Entry-scoped routes
	r.Route("/api/entries/{entry}", func(r chi.Router) {
		r.Get("/images", entryImagesHandler(cfg.Registry))
		r.Get("/state", entryStateHandler(cfg.Registry))
		r.Post("/load/{name}", entryLoadHandler(cfg.Registry))
	})

	// Snapshot endpoints
	r.Get("/api/snapshots/{name}", snapshotHandler(cfg.Snapshots))
	r.Get("/api/snapshots/{name}/export", snapshotExportHandler(cfg.Snapshots))

	// Cache statistics
	r.Get("/api/cache/stats", cacheStatsHandler(cfg.Cache))

	return r
}

// entriesHandler returns the list of pre-declared entries.
func entriesHandler(registry *EntryRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"default": registry.DefaultEntryID(),
			"entries": registry.Entries(),
			"title":   registry.Title(),
		})
	}
}

// entryImagesHandler returns the built catalog for an entry.
func entryImagesHandler(registry *EntryRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID := chi.URLParam(r, "entry")
		m := registry.Get(r.Context(), entryID)
		writeJSON(w, map[string]interface{}{
			"entry":  entryID,
			"images": m.Images(),
		})
	}
}

// entryStateHandler returns the requested/loaded snapshot names.
func entryStateHandler(registry *EntryRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID := chi.URLParam(r, "entry")
		m := registry.Get(r.Context(), entryID)

		state := map[string]interface{}{"requested": nil, "loaded": nil}
		if name, ok := m.Requested(); ok {
			state["requested"] = name
		}
		if name, ok := m.Loaded(); ok {
			state["loaded"] = name
		}
		writeJSON(w, state)
	}
}

// entryLoadHandler triggers a coordinated snapshot load and reports the
// per-call outcome. A superseded outcome is a normal result of rapid
// repeated requests, not an error.
func entryLoadHandler(registry *EntryRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID := chi.URLParam(r, "entry")
		name := chi.URLParam(r, "name")
		m := registry.Get(r.Context(), entryID)

		res := m.Load(r.Context(), name)
		body := map[string]interface{}{
			"entry":  entryID,
			"name":   name,
			"status": res.Status.String(),
		}
		if res.Status == flight.StatusFailed && res.Err != nil {
			body["error"] = res.Err.Error()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(body)
			return
		}
		writeJSON(w, body)
	}
}

// snapshotHandler returns a snapshot document sanitized for host delivery.
// By default both the background and the camera are stripped; keep_camera
// and keep_background retain them.
func snapshotHandler(snapshots *snapshot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		text, err := snapshots.Get(r.Context(), name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		sanitized, err := snapshot.Sanitize(text, snapshot.SanitizeOptions{
			RemoveBackground: !boolQuery(r, "keep_background"),
			RemoveCamera:     !boolQuery(r, "keep_camera"),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(sanitized)
	}
}

// snapshotExportHandler packages a snapshot into a downloadable archive. The
// exported document is kept faithful (camera and background retained) unless
// strip flags are set.
func snapshotExportHandler(snapshots *snapshot.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		text, err := snapshots.Get(r.Context(), name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		document, err := snapshot.Sanitize(text, snapshot.SanitizeOptions{
			RemoveBackground: boolQuery(r, "strip_background"),
			RemoveCamera:     boolQuery(r, "strip_camera"),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.molx"`)
		if err := snapshot.WriteArchive(w, name, document); err != nil {
			// Headers already sent; nothing better to do than drop the
			// connection mid-body.
			return
		}
	}
}

// cacheStatsHandler returns cache statistics.
func cacheStatsHandler(cacheManager *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cacheManager.Stats())
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func boolQuery(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
