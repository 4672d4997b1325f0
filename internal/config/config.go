// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/dashboard and cmd/refresh.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// External endpoint defaults
// --------------------------------------------------------------------------

const (
	// DefaultAccountsURL is the Spotify token endpoint (client credentials).
	DefaultAccountsURL = "https://accounts.spotify.com/api/token"
	// DefaultAPIBaseURL is the Spotify Web API base.
	DefaultAPIBaseURL = "https://api.spotify.com/v1"
	// DefaultBoundariesURL serves the public country-boundary GeoJSON.
	DefaultBoundariesURL = "https://raw.githubusercontent.com/datasets/geo-countries/master/data/countries.geojson"
)

// --------------------------------------------------------------------------
// File names — single source of truth for artifacts under DataDir
// --------------------------------------------------------------------------

const (
	SnapshotFile   = "spotify_data.json"
	BoundariesFile = "countries.geojson"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Spotify API
	SpotifyClientID          string
	SpotifyClientSecret      string
	SpotifyAccountsURL       string
	SpotifyAPIURL            string
	SpotifyRequestsPerMinute int

	// Refresh limits
	MarketsLimit   int
	GenresLimit    int
	TracksPerGenre int
	TopNGenres     int
	TopNArtists    int

	// Artifact locations
	DataDir       string
	MapDir        string
	BoundariesURL string

	// Dashboard server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Inbound rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		SpotifyClientID:          envOr("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret:      envOr("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyAccountsURL:       envOr("SPOTIFY_ACCOUNTS_URL", DefaultAccountsURL),
		SpotifyAPIURL:            envOr("SPOTIFY_API_URL", DefaultAPIBaseURL),
		SpotifyRequestsPerMinute: envInt("SPOTIFY_REQUESTS_PER_MINUTE", 600),

		MarketsLimit:   envInt("MARKETS_LIMIT", 10),
		GenresLimit:    envInt("GENRES_LIMIT", 200),
		TracksPerGenre: envInt("TRACKS_PER_GENRE", 200),
		TopNGenres:     envInt("TOP_N_GENRES", 10),
		TopNArtists:    envInt("TOP_N_ARTISTS", 5),

		DataDir:       envOr("DATA_DIR", "data"),
		MapDir:        envOr("MAP_DIR", "map"),
		BoundariesURL: envOr("BOUNDARIES_URL", DefaultBoundariesURL),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8050)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8050",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	limits := map[string]int{
		"MARKETS_LIMIT":               c.MarketsLimit,
		"GENRES_LIMIT":                c.GenresLimit,
		"TRACKS_PER_GENRE":            c.TracksPerGenre,
		"TOP_N_GENRES":                c.TopNGenres,
		"TOP_N_ARTISTS":               c.TopNArtists,
		"SPOTIFY_REQUESTS_PER_MINUTE": c.SpotifyRequestsPerMinute,
	}
	for name, v := range limits {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}

// SnapshotPath returns the location of the persisted aggregation snapshot.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, SnapshotFile)
}

// BoundariesPath returns the location of the country-boundary GeoJSON file.
func (c *Config) BoundariesPath() string {
	return filepath.Join(c.DataDir, BoundariesFile)
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
