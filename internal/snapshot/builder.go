package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/beatborders/beatborders/internal/spotify"
)

// ErrNoMarkets aborts a refresh that discovered no markets; writing a
// snapshot with no countries would wipe the previous one for nothing.
var ErrNoMarkets = errors.New("no markets discovered")

// Limits bounds one refresh run. Values come from config, with CLI flag
// overrides.
type Limits struct {
	Markets        int
	Genres         int
	TracksPerGenre int
	TopNGenres     int
	TopNArtists    int
}

// Catalog is the slice of the Spotify client the builder consumes.
type Catalog interface {
	Authenticate(ctx context.Context) error
	Categories(ctx context.Context, total int) ([]spotify.Category, error)
	SearchTracks(ctx context.Context, genre, market string, total int) ([]spotify.Track, error)
	Markets(ctx context.Context, total int) ([]string, error)
}

// Builder runs the refresh pipeline: authenticate, discover genres,
// discover markets, aggregate each (market, genre) pair, persist. The run
// is strictly sequential; pacing comes from the fetch throttle underneath.
type Builder struct {
	catalog Catalog
	limits  Limits
	logger  *slog.Logger
}

// NewBuilder creates a Builder over a catalog with the given run limits.
func NewBuilder(catalog Catalog, limits Limits, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{catalog: catalog, limits: limits, logger: logger}
}

// Refresh runs the full pipeline and persists the result to path. Nothing
// is written when the run aborts.
func (b *Builder) Refresh(ctx context.Context, path string) (*RefreshResult, error) {
	snap, result, err := b.Run(ctx)
	if err != nil {
		return result, err
	}
	if err := Write(path, snap); err != nil {
		return result, fmt.Errorf("persist snapshot: %w", err)
	}
	b.logger.Info("Snapshot written",
		"path", path,
		"genres", len(snap.TopGenres),
		"markets", len(snap.CountryGenrePopularity))
	return result, nil
}

// Run executes the aggregation stages and returns the snapshot alongside
// run accounting. Authentication failure and an empty market list abort
// the run; an individual genre or (market, genre) failure scores zero and
// the run continues.
func (b *Builder) Run(ctx context.Context) (*Snapshot, *RefreshResult, error) {
	result := &RefreshResult{}

	// 1. Auth: fail the whole run before touching the catalog.
	if err := b.catalog.Authenticate(ctx); err != nil {
		return nil, result, fmt.Errorf("authenticate: %w", err)
	}

	// 2. Genre discovery: categories ranked by global (marketless) score.
	categories, err := b.catalog.Categories(ctx, b.limits.Genres)
	if err != nil {
		return nil, result, fmt.Errorf("discover genres: %w", err)
	}
	result.GenresDiscovered = len(categories)
	b.logger.Info("Categories discovered", "count", len(categories))

	globalScores := make([]GenreScore, 0, len(categories))
	for _, cat := range categories {
		tracks, err := b.catalog.SearchTracks(ctx, cat.Name, "", b.limits.TracksPerGenre)
		if err != nil {
			if ctx.Err() != nil {
				return nil, result, err
			}
			if errors.Is(err, spotify.ErrNoToken) {
				return nil, result, fmt.Errorf("authenticate: %w", err)
			}
			result.AddErrorf("global tracks for %q: %v", cat.Name, err)
			tracks = nil
		}
		score := GenreScoreOf(tracks)
		globalScores = append(globalScores, GenreScore{Genre: cat.Name, Score: score})
		b.logger.Info("Global genre score", "genre", cat.Name, "score", score)
	}

	top := RankGenres(globalScores, b.limits.TopNGenres)
	topGenres := make([]string, len(top))
	for i, gs := range top {
		topGenres[i] = gs.Genre
	}
	result.GenresRanked = len(topGenres)
	b.logger.Info("Top genres selected", "genres", topGenres)

	// 3. Market discovery: an empty list aborts before anything is written.
	markets, err := b.catalog.Markets(ctx, b.limits.Markets)
	if err != nil {
		return nil, result, fmt.Errorf("discover markets: %w", err)
	}
	if len(markets) == 0 {
		return nil, result, ErrNoMarkets
	}
	result.MarketsDiscovered = len(markets)
	b.logger.Info("Markets selected", "count", len(markets))

	// 4. Per-market aggregation: one search per (market, genre) pair feeds
	// both the score and the artist ranking.
	snap := New()
	snap.TopGenres = topGenres
	for _, market := range markets {
		scores := make(map[string]int, len(topGenres))
		artists := make(map[string][]ArtistScore, len(topGenres))
		for _, genre := range topGenres {
			tracks, err := b.catalog.SearchTracks(ctx, genre, market, b.limits.TracksPerGenre)
			if err != nil {
				if ctx.Err() != nil {
					return nil, result, err
				}
				if errors.Is(err, spotify.ErrNoToken) {
					return nil, result, fmt.Errorf("authenticate: %w", err)
				}
				result.PairsFailed++
				result.AddErrorf("aggregate %s/%s: %v", market, genre, err)
				b.logger.Warn("Pair aggregation failed", "market", market, "genre", genre, "error", err)
				scores[genre] = 0
				artists[genre] = []ArtistScore{}
				continue
			}
			scores[genre] = GenreScoreOf(tracks)
			artists[genre] = TopArtists(tracks, b.limits.TopNArtists)
			result.PairsAggregated++
		}
		snap.CountryGenrePopularity[market] = scores
		snap.TopArtists[market] = artists
		b.logger.Info("Market aggregated", "market", market)
	}

	return snap, result, nil
}
