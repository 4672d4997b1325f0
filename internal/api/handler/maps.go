package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beatborders/beatborders/internal/api/respond"
	"github.com/beatborders/beatborders/internal/cache"
	"github.com/beatborders/beatborders/internal/snapshot"
)

// GetGenres returns the global genre ranking.
// @Summary Get genre ranking
// @Description Returns every tracked genre with its popularity score summed across all countries, descending.
// @Tags genres
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /genres [get]
func (h *Handler) GetGenres(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, "genres", cache.TTLTable, func() (any, error) {
		return map[string]any{"genres": h.data.GenreRanking}, nil
	})
}

// GetTotalMap returns the aggregate choropleth FeatureCollection.
// @Summary Get total popularity map
// @Description Returns the joined FeatureCollection for the aggregate view: per country, the sum of all genre scores plus a top-genre tooltip.
// @Tags maps
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /maps/total [get]
func (h *Handler) GetTotalMap(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, "map:total", cache.TTLMap, func() (any, error) {
		return h.data.Total.FeatureCollection(), nil
	})
}

// GetGenreMap returns one genre's choropleth FeatureCollection.
// @Summary Get genre popularity map
// @Description Returns the joined FeatureCollection for a single genre: per country, that genre's score plus a top-artist tooltip.
// @Tags maps
// @Produce json
// @Param genre path string true "Genre name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /maps/genre/{genre} [get]
func (h *Handler) GetGenreMap(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	table, ok := h.data.ByGenre[genre]
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_GENRE", "No such genre: "+genre)
		return
	}
	h.cached(w, r, "map:genre:"+genre, cache.TTLMap, func() (any, error) {
		return table.FeatureCollection(), nil
	})
}

// GetGenreArtists returns the global top artists for a genre.
// @Summary Get top artists for a genre
// @Description Returns the genre's top artists by popularity summed across all countries, as [artist, score] pairs.
// @Tags artists
// @Produce json
// @Param genre path string true "Genre name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /artists/{genre} [get]
func (h *Handler) GetGenreArtists(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	artists, ok := h.data.GlobalArtists[genre]
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_GENRE", "No such genre: "+genre)
		return
	}
	if artists == nil {
		artists = []snapshot.ArtistScore{}
	}
	h.cached(w, r, "artists:"+genre, cache.TTLTable, func() (any, error) {
		return map[string]any{"genre": genre, "artists": artists}, nil
	})
}

// GetCountry returns one country's joined row without geometry. The
// optional genre query switches from the aggregate view to a genre view.
// @Summary Get one country's joined row
// @Description Returns the joined value and tooltip for a single country by ISO 3166-1 alpha-2 code, for the aggregate view or a single genre (?genre=).
// @Tags countries
// @Produce json
// @Param code path string true "ISO 3166-1 alpha-2 country code"
// @Param genre query string false "Genre name (defaults to the aggregate view)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /countries/{code} [get]
func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	genre := r.URL.Query().Get("genre")

	table, ok := h.data.Table(genre)
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_GENRE", "No such genre: "+genre)
		return
	}
	row, ok := table.Get(code)
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_COUNTRY", "No such country: "+code)
		return
	}
	row.Geometry = nil

	h.cached(w, r, fmt.Sprintf("country:%s:%s", code, genre), cache.TTLTable, func() (any, error) {
		return row, nil
	})
}

// cached serves a response through the ETag cache: conditional 304 when
// the client's ETag matches, otherwise build, store, and serve.
func (h *Handler) cached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, build func() (any, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := build()
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", err.Error())
		return
	}

	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}
