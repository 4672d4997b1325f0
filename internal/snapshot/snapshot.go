// Package snapshot builds and persists the country/genre popularity
// aggregation. The snapshot is the single unit of truth the map job and the
// dashboard consume; each refresh replaces the whole file atomically.
package snapshot

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the persisted aggregation result.
//
// CountryGenrePopularity and TopArtists are keyed by ISO 3166-1 alpha-2
// market code, then by genre name. TopGenres preserves the global ranking
// order the refresh selected.
type Snapshot struct {
	TopGenres              []string                            `json:"top_genres"`
	CountryGenrePopularity map[string]map[string]int           `json:"country_genre_popularity"`
	TopArtists             map[string]map[string][]ArtistScore `json:"top_artists"`
}

// New returns an empty snapshot with allocated maps.
func New() *Snapshot {
	return &Snapshot{
		TopGenres:              []string{},
		CountryGenrePopularity: make(map[string]map[string]int),
		TopArtists:             make(map[string]map[string][]ArtistScore),
	}
}

// GenreScore pairs a genre with an aggregated popularity score.
type GenreScore struct {
	Genre string `json:"genre"`
	Score int    `json:"score"`
}

// ArtistScore pairs an artist with an aggregated popularity score. On the
// wire it is the two-element array ["artist", score].
type ArtistScore struct {
	Artist string
	Score  int
}

// MarshalJSON encodes the pair as ["artist", score].
func (a ArtistScore) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{a.Artist, a.Score})
}

// UnmarshalJSON decodes the ["artist", score] pair form.
func (a *ArtistScore) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("artist score must be a two-element array: %w", err)
	}
	if err := json.Unmarshal(pair[0], &a.Artist); err != nil {
		return fmt.Errorf("artist name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &a.Score); err != nil {
		return fmt.Errorf("artist score: %w", err)
	}
	return nil
}
