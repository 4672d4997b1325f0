package render

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatborders/beatborders/internal/dataset"
	"github.com/beatborders/beatborders/internal/snapshot"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	dir := t.TempDir()

	snap := snapshot.New()
	snap.TopGenres = []string{"rock", "hip hop"}
	snap.CountryGenrePopularity = map[string]map[string]int{
		"US": {"rock": 10, "hip hop": 20},
	}
	snap.TopArtists = map[string]map[string][]snapshot.ArtistScore{
		"US": {"rock": {{Artist: "Alpha", Score: 10}}, "hip hop": {}},
	}
	snapPath := filepath.Join(dir, "spotify_data.json")
	require.NoError(t, snapshot.Write(snapPath, snap))

	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"iso_a2":"US","name":"United States"},"geometry":{"type":"Polygon","coordinates":[]}}
	]}`
	geoPath := filepath.Join(dir, "countries.geojson")
	require.NoError(t, os.WriteFile(geoPath, []byte(doc), 0o644))

	d, err := dataset.Load(snapPath, geoPath, quietLogger())
	require.NoError(t, err)
	return d
}

func TestMapsWritesAllFiles(t *testing.T) {
	r, err := New(quietLogger())
	require.NoError(t, err)

	mapDir := t.TempDir()
	require.NoError(t, r.Maps(testDataset(t), mapDir))

	assert.FileExists(t, filepath.Join(mapDir, "total_popularity.html"))
	assert.FileExists(t, filepath.Join(mapDir, "genre", "rock.html"))
	assert.FileExists(t, filepath.Join(mapDir, "genre", "hip_hop.html"), "spaces become underscores")
}

func TestMapInlinesJoinedData(t *testing.T) {
	r, err := New(quietLogger())
	require.NoError(t, err)

	mapDir := t.TempDir()
	require.NoError(t, r.Maps(testDataset(t), mapDir))

	html, err := os.ReadFile(filepath.Join(mapDir, "total_popularity.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `"iso_a2":"US"`)
	assert.Contains(t, string(html), "United States")
	assert.Contains(t, string(html), "leaflet")
}

func TestGenreFileName(t *testing.T) {
	assert.Equal(t, "rock.html", GenreFileName("rock"))
	assert.Equal(t, "hip_hop.html", GenreFileName("hip hop"))
}
