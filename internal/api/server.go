// Package api wires the dashboard's chi router: pages, the JSON API, and
// the middleware stack.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/beatborders/beatborders/internal/api/handler"
	"github.com/beatborders/beatborders/internal/cache"
	"github.com/beatborders/beatborders/internal/config"
	"github.com/beatborders/beatborders/internal/dataset"
)

// NewRouter creates the chi router with all middleware and routes.
func NewRouter(data *dataset.Dataset, appCache *cache.Cache, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip — geometry payloads compress well

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(data, appCache, cfg)

	// --- Routes ---

	// Pages
	r.Get("/", h.Home)
	r.Get("/genres", h.GenreExplorer)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/genres", h.GetGenres)
		r.Get("/maps/total", h.GetTotalMap)
		r.Get("/maps/genre/{genre}", h.GetGenreMap)
		r.Get("/artists/{genre}", h.GetGenreArtists)
		r.Get("/countries/{code}", h.GetCountry)
	})

	return r
}
