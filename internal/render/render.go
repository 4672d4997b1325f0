// Package render writes the static choropleth pages the map job produces:
// one aggregate map plus one per genre, each a self-contained HTML file
// with the joined GeoJSON inlined and Leaflet loaded from its CDN.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beatborders/beatborders/internal/dataset"
	"github.com/beatborders/beatborders/internal/join"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TotalFile is the aggregate map's file name under the map directory.
const TotalFile = "total_popularity.html"

// GenreDir holds the per-genre maps under the map directory.
const GenreDir = "genre"

type pageData struct {
	Title    string
	GeoJSON  template.JS
	MaxValue int
}

// Renderer writes choropleth HTML files.
type Renderer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// New parses the embedded map template.
func New(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/map.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse map template: %w", err)
	}
	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// Maps renders the aggregate map and one map per genre into mapDir.
func (r *Renderer) Maps(d *dataset.Dataset, mapDir string) error {
	if err := os.MkdirAll(filepath.Join(mapDir, GenreDir), 0o755); err != nil {
		return fmt.Errorf("create map dir: %w", err)
	}

	totalPath := filepath.Join(mapDir, TotalFile)
	if err := r.writeMap(totalPath, "Total genre popularity by country", d.Total); err != nil {
		return err
	}
	r.logger.Info("Map rendered", "path", totalPath)

	for _, genre := range d.Genres() {
		table := d.ByGenre[genre]
		path := filepath.Join(mapDir, GenreDir, GenreFileName(genre))
		if err := r.writeMap(path, fmt.Sprintf("%s popularity by country", genre), table); err != nil {
			return err
		}
		r.logger.Info("Map rendered", "genre", genre, "path", path)
	}
	return nil
}

// GenreFileName maps a genre to its output file name; spaces become
// underscores.
func GenreFileName(genre string) string {
	return strings.ReplaceAll(genre, " ", "_") + ".html"
}

func (r *Renderer) writeMap(path, title string, table *join.Table) error {
	raw, err := json.Marshal(table.FeatureCollection())
	if err != nil {
		return fmt.Errorf("encode joined geojson: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}

	data := pageData{
		Title:    title,
		GeoJSON:  template.JS(raw),
		MaxValue: table.MaxValue(),
	}
	if err := r.tmpl.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
