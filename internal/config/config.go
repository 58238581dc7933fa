// Package config handles configuration loading for the entry gallery server.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Remote  RemoteConfig  `yaml:"remote"`
	Cache   CacheConfig   `yaml:"cache"`
	Gallery GalleryConfig `yaml:"gallery"`
	Load    LoadConfig    `yaml:"load"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	Title       string   `yaml:"title"`
}

// RemoteConfig contains remote image-service settings.
type RemoteConfig struct {
	// BaseURL is the service serving {entry}.json descriptions and
	// {name}.molj snapshot documents.
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// RendererURL is the viewer bridge snapshots are forwarded to. Empty
	// means log-only delivery.
	RendererURL string `yaml:"renderer_url"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	SnapshotSizeMB        int `yaml:"snapshot_size_mb"`
	SnapshotTTLMinutes    int `yaml:"snapshot_ttl_minutes"`
	CatalogSize           int `yaml:"catalog_size"`
	DescriptionTTLMinutes int `yaml:"description_ttl_minutes"`
}

// GalleryConfig contains catalog settings.
type GalleryConfig struct {
	// Entries pre-declares entry ids listed by /api/entries. Other entries
	// are still served on demand.
	Entries      []string `yaml:"entries"`
	DefaultEntry string   `yaml:"default_entry"`
	// ExcludeSuffixes drops image filename variants; nil means the default
	// orientation variants (_side, _top).
	ExcludeSuffixes []string `yaml:"exclude_suffixes"`
}

// LoadConfig contains snapshot-load settings.
type LoadConfig struct {
	KeepCameraOrientation bool `yaml:"keep_camera_orientation"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			Title:       "Entry Gallery",
		},
		Remote: RemoteConfig{
			BaseURL:        "https://www.ebi.ac.uk/pdbe/entry-files/snapshots",
			TimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			SnapshotSizeMB:        256,
			SnapshotTTLMinutes:    720,
			CatalogSize:           128,
			DescriptionTTLMinutes: 30,
		},
		Gallery: GalleryConfig{
			ExcludeSuffixes: []string{"_side", "_top"},
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.Title == "" {
		cfg.Server.Title = defaults.Server.Title
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = defaults.Remote.BaseURL
	}
	if cfg.Remote.TimeoutSeconds == 0 {
		cfg.Remote.TimeoutSeconds = defaults.Remote.TimeoutSeconds
	}
	if cfg.Cache.SnapshotSizeMB == 0 {
		cfg.Cache.SnapshotSizeMB = defaults.Cache.SnapshotSizeMB
	}
	if cfg.Cache.SnapshotTTLMinutes == 0 {
		cfg.Cache.SnapshotTTLMinutes = defaults.Cache.SnapshotTTLMinutes
	}
	if cfg.Cache.CatalogSize == 0 {
		cfg.Cache.CatalogSize = defaults.Cache.CatalogSize
	}
	if cfg.Cache.DescriptionTTLMinutes == 0 {
		cfg.Cache.DescriptionTTLMinutes = defaults.Cache.DescriptionTTLMinutes
	}
	if cfg.Gallery.ExcludeSuffixes == nil {
		cfg.Gallery.ExcludeSuffixes = defaults.Gallery.ExcludeSuffixes
	}
	if cfg.Gallery.DefaultEntry == "" && len(cfg.Gallery.Entries) > 0 {
		cfg.Gallery.DefaultEntry = cfg.Gallery.Entries[0]
	}
}
