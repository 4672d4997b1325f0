package geo

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feature(props map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		Properties: props,
		Geometry:   json.RawMessage(`{"type":"Polygon","coordinates":[]}`),
	}
}

func collection(features ...Feature) *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}

func TestNormalizeISOAliases(t *testing.T) {
	cases := []string{
		"iso_a2",
		"ISO_A2",
		"iso2",
		"ISO_3166_1_ALPHA_2",
		"iso3166-1-alpha-2",
		"ISO3166-1-Alpha-2",
	}
	for _, key := range cases {
		t.Run(key, func(t *testing.T) {
			fc := collection(feature(map[string]any{key: "us", "name": "United States"}))

			b, err := Normalize(fc, quietLogger())
			require.NoError(t, err)
			require.Equal(t, 1, b.Len())
			assert.Equal(t, "US", b.Records[0].ISOA2, "codes must be uppercased")
		})
	}
}

func TestNormalizeMissingISOColumn(t *testing.T) {
	fc := collection(feature(map[string]any{"population": 1000, "name": "Nowhere"}))

	_, err := Normalize(fc, quietLogger())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoISOColumn)
}

func TestNormalizeAliasPriority(t *testing.T) {
	fc := collection(feature(map[string]any{"iso2": "XX", "iso_a2": "US"}))

	b, err := Normalize(fc, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "US", b.Records[0].ISOA2, "iso_a2 outranks iso2 in the alias table")
}

func TestNormalizeNameDetection(t *testing.T) {
	cases := []struct {
		label string
		props map[string]any
		want  string
	}{
		{"exact name", map[string]any{"iso_a2": "US", "name": "United States"}, "United States"},
		{"admin", map[string]any{"iso_a2": "US", "ADMIN": "United States of America"}, "United States of America"},
		{"contains name", map[string]any{"iso_a2": "US", "NAME_LONG": "United States"}, "United States"},
		{"name beats admin", map[string]any{"iso_a2": "US", "name": "A", "admin": "B"}, "A"},
		{"no name property", map[string]any{"iso_a2": "US"}, ""},
	}
	for _, c := range cases {
		t.Run(c.label, func(t *testing.T) {
			b, err := Normalize(collection(feature(c.props)), quietLogger())
			require.NoError(t, err, "a missing name must never be fatal")
			assert.Equal(t, c.want, b.Records[0].Name)
		})
	}
}

func TestNormalizeTrimsAndUppercases(t *testing.T) {
	fc := collection(feature(map[string]any{"iso_a2": " gb "}))

	b, err := Normalize(fc, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "GB", b.Records[0].ISOA2)
}

func TestNormalizeDuplicateCodeKeepsFirst(t *testing.T) {
	fc := collection(
		feature(map[string]any{"iso_a2": "US", "name": "First"}),
		feature(map[string]any{"iso_a2": "US", "name": "Second"}),
	)

	b, err := Normalize(fc, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, "First", b.Records[0].Name)
}

func TestNormalizeSkipsFeaturesWithoutCode(t *testing.T) {
	fc := collection(
		feature(map[string]any{"iso_a2": "US", "name": "United States"}),
		feature(map[string]any{"iso_a2": "", "name": "Disputed"}),
		feature(map[string]any{"name": "No code at all"}),
	)

	b, err := Normalize(fc, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, "US", b.Records[0].ISOA2)
}

func TestNormalizeGeometryPassthrough(t *testing.T) {
	geom := `{"type":"MultiPolygon","coordinates":[[[[1.5,2.5],[3.0,4.0],[1.5,2.5]]]]}`
	f := feature(map[string]any{"iso_a2": "US"})
	f.Geometry = json.RawMessage(geom)

	b, err := Normalize(collection(f), quietLogger())
	require.NoError(t, err)
	assert.JSONEq(t, geom, string(b.Records[0].Geometry), "geometry must pass through untouched")
}

func TestBoundariesGet(t *testing.T) {
	fc := collection(
		feature(map[string]any{"iso_a2": "US", "name": "United States"}),
		feature(map[string]any{"iso_a2": "GB", "name": "United Kingdom"}),
	)
	b, err := Normalize(fc, quietLogger())
	require.NoError(t, err)

	rec, ok := b.Get("GB")
	require.True(t, ok)
	assert.Equal(t, "United Kingdom", rec.Name)

	_, ok = b.Get("ZZ")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"ISO_A2":"de","ADMIN":"Germany"},"geometry":{"type":"Polygon","coordinates":[]}}
	]}`
	path := filepath.Join(t.TempDir(), "countries.geojson")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	b, err := Load(path, quietLogger())
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, "DE", b.Records[0].ISOA2)
	assert.Equal(t, "Germany", b.Records[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.geojson"), quietLogger())
	assert.Error(t, err)
}
