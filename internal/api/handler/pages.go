package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/beatborders/beatborders/internal/snapshot"
)

//go:embed templates/*.tmpl
var pageFS embed.FS

var pages = template.Must(template.ParseFS(pageFS, "templates/*.tmpl"))

type homeData struct {
	Genres  []string
	Ranking []snapshot.GenreScore
}

type explorerData struct {
	Genres []string
}

// Home serves the landing page: the aggregate choropleth plus the global
// genre ranking table. The map itself loads client-side from the JSON API.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.page(w, "home.html.tmpl", homeData{
		Genres:  h.data.Genres(),
		Ranking: h.data.GenreRanking,
	})
}

// GenreExplorer serves the interactive page: a genre dropdown driving the
// genre map and top-artist table through the JSON API.
func (h *Handler) GenreExplorer(w http.ResponseWriter, r *http.Request) {
	h.page(w, "explorer.html.tmpl", explorerData{Genres: h.data.Genres()})
}

func (h *Handler) page(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
