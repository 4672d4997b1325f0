package snapshot

import (
	"sort"

	"github.com/beatborders/beatborders/internal/spotify"
)

// GenreScoreOf sums track popularity into the genre score for whatever
// scope (global or one market) the track list was fetched under.
func GenreScoreOf(tracks []spotify.Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Popularity
	}
	return total
}

// TopArtists ranks primary artists (first credit on each track) by summed
// popularity, descending. Tracks without artists are skipped. Ties keep
// first-encounter order; the result is truncated to n.
func TopArtists(tracks []spotify.Track, n int) []ArtistScore {
	sums := make(map[string]int)
	order := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if len(t.Artists) == 0 {
			continue
		}
		name := t.Artists[0].Name
		if _, seen := sums[name]; !seen {
			order = append(order, name)
		}
		sums[name] += t.Popularity
	}

	ranked := make([]ArtistScore, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, ArtistScore{Artist: name, Score: sums[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RankGenres sorts genre scores descending, ties keeping input order, and
// truncates to n.
func RankGenres(scores []GenreScore, n int) []GenreScore {
	ranked := make([]GenreScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
