// Package join produces the rendering handoff: boundary geometry
// left-joined with snapshot aggregates into one row per country. The map
// job and the dashboard both consume join tables and nothing else.
package join

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/beatborders/beatborders/internal/geo"
	"github.com/beatborders/beatborders/internal/snapshot"
)

// Tooltip sentinels. A country missing from the snapshot entirely reads
// "No data"; a country that was aggregated but has no ranked artists for
// the selected genre reads "None".
const (
	TooltipNoData = "No data"
	TooltipNone   = "None"
)

// tooltipTop caps how many entries a tooltip lists.
const tooltipTop = 5

// Row is one joined country, ready for rendering.
type Row struct {
	ISOA2       string          `json:"iso_a2"`
	CountryName string          `json:"country_name,omitempty"`
	Value       int             `json:"value"`
	Tooltip     string          `json:"tooltip"`
	Geometry    json.RawMessage `json:"geometry,omitempty"`
}

// Table holds joined rows in boundary order with a code index for
// constant-time lookup. Tables are immutable once built and safe for
// concurrent readers.
type Table struct {
	Rows   []Row
	byCode map[string]int
}

// Get returns the row for an uppercase ISO-2 code.
func (t *Table) Get(code string) (Row, bool) {
	i, ok := t.byCode[code]
	if !ok {
		return Row{}, false
	}
	return t.Rows[i], true
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Total joins boundaries against the snapshot's aggregate view: each
// country's value is the sum of its genre scores and its tooltip lists the
// top genres. Every boundary record yields a row; countries the snapshot
// never saw get value 0 and the "No data" sentinel.
func Total(b *geo.Boundaries, snap *snapshot.Snapshot) *Table {
	t := newTable(b.Len())
	for _, rec := range b.Records {
		row := Row{ISOA2: rec.ISOA2, CountryName: rec.Name, Geometry: rec.Geometry}

		scores, ok := snap.CountryGenrePopularity[rec.ISOA2]
		if !ok {
			row.Value = 0
			row.Tooltip = TooltipNoData
			t.add(row)
			continue
		}

		// Iterate genres in ranking order so ties format deterministically.
		ranked := make([]snapshot.GenreScore, 0, len(snap.TopGenres))
		for _, g := range snap.TopGenres {
			score := scores[g]
			row.Value += score
			ranked = append(ranked, snapshot.GenreScore{Genre: g, Score: score})
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		if len(ranked) > tooltipTop {
			ranked = ranked[:tooltipTop]
		}

		parts := make([]string, len(ranked))
		for i, gs := range ranked {
			parts[i] = fmt.Sprintf("%s (%d)", gs.Genre, gs.Score)
		}
		row.Tooltip = strings.Join(parts, ", ")
		if row.Tooltip == "" {
			row.Tooltip = TooltipNone
		}
		t.add(row)
	}
	return t
}

// Genre joins boundaries against a single genre's view: each country's
// value is that genre's score and its tooltip lists the country's top
// artists for the genre. Left-join semantics match Total.
func Genre(b *geo.Boundaries, snap *snapshot.Snapshot, genre string) *Table {
	t := newTable(b.Len())
	for _, rec := range b.Records {
		row := Row{ISOA2: rec.ISOA2, CountryName: rec.Name, Geometry: rec.Geometry}

		scores, ok := snap.CountryGenrePopularity[rec.ISOA2]
		if !ok {
			row.Value = 0
			row.Tooltip = TooltipNoData
			t.add(row)
			continue
		}
		row.Value = scores[genre]

		artists := snap.TopArtists[rec.ISOA2][genre]
		if len(artists) > tooltipTop {
			artists = artists[:tooltipTop]
		}
		parts := make([]string, len(artists))
		for i, a := range artists {
			parts[i] = fmt.Sprintf("%s (%d)", a.Artist, a.Score)
		}
		row.Tooltip = strings.Join(parts, ", ")
		if row.Tooltip == "" {
			row.Tooltip = TooltipNone
		}
		t.add(row)
	}
	return t
}

func newTable(n int) *Table {
	return &Table{
		Rows:   make([]Row, 0, n),
		byCode: make(map[string]int, n),
	}
}

func (t *Table) add(row Row) {
	t.byCode[row.ISOA2] = len(t.Rows)
	t.Rows = append(t.Rows, row)
}

// FeatureCollection re-attaches geometry into a GeoJSON document for the
// rendering layer. Properties carry the joined fields.
func (t *Table) FeatureCollection() *geo.FeatureCollection {
	fc := &geo.FeatureCollection{Type: "FeatureCollection", Features: make([]geo.Feature, 0, len(t.Rows))}
	for _, row := range t.Rows {
		props := map[string]any{
			"iso_a2":  row.ISOA2,
			"value":   row.Value,
			"tooltip": row.Tooltip,
		}
		if row.CountryName != "" {
			props["country_name"] = row.CountryName
		}
		fc.Features = append(fc.Features, geo.Feature{
			Type:       "Feature",
			Properties: props,
			Geometry:   row.Geometry,
		})
	}
	return fc
}

// MaxValue returns the largest row value, used to scale choropleth colors.
func (t *Table) MaxValue() int {
	max := 0
	for _, row := range t.Rows {
		if row.Value > max {
			max = row.Value
		}
	}
	return max
}
