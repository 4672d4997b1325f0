// Package dataset holds the dashboard's application state: the snapshot,
// the normalized boundaries, and every join table the UI can ask for,
// built once at startup in a fixed order. Nothing here mutates after Load
// returns, so the dataset is safe to share across request handlers.
package dataset

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/beatborders/beatborders/internal/geo"
	"github.com/beatborders/beatborders/internal/join"
	"github.com/beatborders/beatborders/internal/snapshot"
)

// globalArtistTop caps the per-genre global artist ranking.
const globalArtistTop = 10

// Dataset is the dashboard's immutable state.
type Dataset struct {
	Snapshot   *snapshot.Snapshot
	Boundaries *geo.Boundaries

	// Precomputed join tables: the aggregate view plus one per genre.
	Total   *join.Table
	ByGenre map[string]*join.Table

	// GenreRanking sums each genre's score across all countries, descending.
	GenreRanking []snapshot.GenreScore

	// GlobalArtists ranks artists per genre by score summed across all
	// countries, capped at ten.
	GlobalArtists map[string][]snapshot.ArtistScore

	LoadedAt time.Time
}

// Load builds the dataset in its fixed initialization order: snapshot,
// then boundaries, then the precomputed joins and rankings. Any failure is
// fatal to the caller; there is no partial dataset.
func Load(snapshotPath, boundariesPath string, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snap, err := snapshot.Load(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	boundaries, err := geo.Load(boundariesPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load boundaries: %w", err)
	}

	d := &Dataset{
		Snapshot:   snap,
		Boundaries: boundaries,
		Total:      join.Total(boundaries, snap),
		ByGenre:    make(map[string]*join.Table, len(snap.TopGenres)),
		LoadedAt:   time.Now().UTC(),
	}
	for _, genre := range snap.TopGenres {
		d.ByGenre[genre] = join.Genre(boundaries, snap, genre)
	}
	d.GenreRanking = rankGenres(snap)
	d.GlobalArtists = rankGlobalArtists(snap)

	logger.Info("Dataset loaded",
		"genres", len(snap.TopGenres),
		"markets", len(snap.CountryGenrePopularity),
		"boundaries", boundaries.Len())
	return d, nil
}

// Genres returns the genre list in snapshot ranking order.
func (d *Dataset) Genres() []string { return d.Snapshot.TopGenres }

// Table returns the join table for a genre, or the aggregate table for the
// empty string.
func (d *Dataset) Table(genre string) (*join.Table, bool) {
	if genre == "" {
		return d.Total, true
	}
	t, ok := d.ByGenre[genre]
	return t, ok
}

// rankGenres sums each genre's score across countries and sorts the result
// descending, ties keeping the snapshot's ranking order.
func rankGenres(snap *snapshot.Snapshot) []snapshot.GenreScore {
	ranked := make([]snapshot.GenreScore, 0, len(snap.TopGenres))
	for _, genre := range snap.TopGenres {
		total := 0
		for _, scores := range snap.CountryGenrePopularity {
			total += scores[genre]
		}
		ranked = append(ranked, snapshot.GenreScore{Genre: genre, Score: total})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// rankGlobalArtists sums each artist's score across countries per genre.
// Markets iterate in sorted order so the first-encounter tie-break is
// deterministic across runs.
func rankGlobalArtists(snap *snapshot.Snapshot) map[string][]snapshot.ArtistScore {
	markets := make([]string, 0, len(snap.TopArtists))
	for m := range snap.TopArtists {
		markets = append(markets, m)
	}
	sort.Strings(markets)

	out := make(map[string][]snapshot.ArtistScore, len(snap.TopGenres))
	for _, genre := range snap.TopGenres {
		sums := make(map[string]int)
		order := []string{}
		for _, market := range markets {
			for _, a := range snap.TopArtists[market][genre] {
				if _, seen := sums[a.Artist]; !seen {
					order = append(order, a.Artist)
				}
				sums[a.Artist] += a.Score
			}
		}

		ranked := make([]snapshot.ArtistScore, 0, len(order))
		for _, name := range order {
			ranked = append(ranked, snapshot.ArtistScore{Artist: name, Score: sums[name]})
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		if len(ranked) > globalArtistTop {
			ranked = ranked[:globalArtistTop]
		}
		out[genre] = ranked
	}
	return out
}
