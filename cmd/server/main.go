// Package main is the entry point for the entry gallery server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entry-gallery/server/internal/api"
	"github.com/entry-gallery/server/internal/cache"
	"github.com/entry-gallery/server/internal/config"
	"github.com/entry-gallery/server/internal/fetch"
	"github.com/entry-gallery/server/internal/host"
	"github.com/entry-gallery/server/internal/manager"
	"github.com/entry-gallery/server/internal/snapshot"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/server.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting entry gallery server on port %d", cfg.Server.Port)

	ctx := context.Background()
	timeout := time.Duration(cfg.Remote.TimeoutSeconds) * time.Second

	// Initialize cache manager (shared across all entries)
	cacheManager, err := cache.NewManager(cache.Config{
		SnapshotCacheSizeMB: cfg.Cache.SnapshotSizeMB,
		SnapshotTTL:         time.Duration(cfg.Cache.SnapshotTTLMinutes) * time.Minute,
		CatalogCacheSize:    cfg.Cache.CatalogSize,
		DescriptionTTL:      time.Duration(cfg.Cache.DescriptionTTLMinutes) * time.Minute,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	// Remote image service client
	client := fetch.NewClient(cfg.Remote.BaseURL, timeout)
	log.Printf("Remote image service: %s", client.BaseURL())

	// Snapshot service (cached retrieval)
	snapshots := snapshot.NewService(client, cacheManager)

	// Rendering host: forward to the viewer bridge when configured
	var renderer host.Renderer = host.LogRenderer{}
	if cfg.Remote.RendererURL != "" {
		renderer = host.NewHTTPRenderer(cfg.Remote.RendererURL, timeout)
		log.Printf("Forwarding snapshots to renderer at %s", cfg.Remote.RendererURL)
	}

	// Per-entry manager registry with lazy creation
	registry := api.NewEntryRegistry(cfg.Gallery.DefaultEntry, cfg.Gallery.Entries, cfg.Server.Title,
		func(ctx context.Context, entryID string) *manager.Manager {
			return manager.Create(ctx, entryID, client, snapshots, renderer, cacheManager, manager.Options{
				ExcludeSuffixes:       cfg.Gallery.ExcludeSuffixes,
				KeepCameraOrientation: cfg.Load.KeepCameraOrientation,
			})
		})

	if len(cfg.Gallery.Entries) > 0 {
		log.Printf("Pre-declared entries: %v (default: %s)", cfg.Gallery.Entries, cfg.Gallery.DefaultEntry)
	}

	// Set up HTTP router
	router := api.NewRouter(api.RouterConfig{
		Registry:    registry,
		Snapshots:   snapshots,
		Cache:       cacheManager,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
