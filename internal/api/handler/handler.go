// Package handler provides HTTP handlers for the dashboard's pages and
// JSON API. Handlers read the immutable startup dataset directly — no
// service layer; heavy responses go through the ETag cache.
package handler

import (
	"net/http"
	"time"

	"github.com/beatborders/beatborders/internal/api/respond"
	"github.com/beatborders/beatborders/internal/cache"
	"github.com/beatborders/beatborders/internal/config"
	"github.com/beatborders/beatborders/internal/dataset"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	data  *dataset.Dataset
	cache *cache.Cache
	cfg   *config.Config
}

// New creates a Handler with shared dependencies.
func New(data *dataset.Dataset, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{data: data, cache: c, cfg: cfg}
}

// HealthCheck returns service health plus a dataset summary.
// @Summary Health check
// @Description Returns health status, dataset load time, and dataset sizes.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"dataset": map[string]interface{}{
			"loaded_at":  h.data.LoadedAt.Format(time.RFC3339),
			"genres":     len(h.data.Genres()),
			"markets":    len(h.data.Snapshot.CountryGenrePopularity),
			"boundaries": h.data.Boundaries.Len(),
		},
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
