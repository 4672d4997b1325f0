// Command refresh is the BeatBorders data refresh CLI.
//
// Usage:
//
//	beatborders-refresh snapshot
//	beatborders-refresh snapshot --markets 20 --top-genres 10
//	beatborders-refresh boundaries --force
//	beatborders-refresh maps
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/beatborders/beatborders/internal/config"
	"github.com/beatborders/beatborders/internal/dataset"
	"github.com/beatborders/beatborders/internal/fetch"
	"github.com/beatborders/beatborders/internal/geo"
	"github.com/beatborders/beatborders/internal/render"
	"github.com/beatborders/beatborders/internal/snapshot"
	"github.com/beatborders/beatborders/internal/spotify"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "beatborders-refresh",
		Short: "BeatBorders data refresh CLI",
	}

	root.AddCommand(snapshotCmd())
	root.AddCommand(boundariesCmd())
	root.AddCommand(mapsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// snapshot command
// --------------------------------------------------------------------------

func snapshotCmd() *cobra.Command {
	var limits snapshot.Limits
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Refresh the genre popularity snapshot from Spotify",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config) error {
				if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
					return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
				}
				applyDefaults(&limits, cfg)

				fetcher := fetch.New(cfg.SpotifyRequestsPerMinute, logger)
				client := spotify.New(cfg.SpotifyAccountsURL, cfg.SpotifyAPIURL,
					cfg.SpotifyClientID, cfg.SpotifyClientSecret, fetcher, logger)
				builder := snapshot.NewBuilder(client, limits, logger)

				start := time.Now()
				result, err := builder.Refresh(ctx, cfg.SnapshotPath())
				if result != nil {
					for _, e := range result.Errors {
						logger.Error("refresh error", "error", e)
					}
				}
				if err != nil {
					return err
				}
				logger.Info("Snapshot refresh finished",
					"duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limits.Markets, "markets", 0, "Market limit (default from config)")
	cmd.Flags().IntVar(&limits.Genres, "genres", 0, "Category discovery limit")
	cmd.Flags().IntVar(&limits.TracksPerGenre, "tracks-per-genre", 0, "Tracks fetched per genre query")
	cmd.Flags().IntVar(&limits.TopNGenres, "top-genres", 0, "Genres kept after global ranking")
	cmd.Flags().IntVar(&limits.TopNArtists, "top-artists", 0, "Artists kept per (market, genre)")
	return cmd
}

// applyDefaults fills zero-valued flag limits from config.
func applyDefaults(limits *snapshot.Limits, cfg *config.Config) {
	if limits.Markets == 0 {
		limits.Markets = cfg.MarketsLimit
	}
	if limits.Genres == 0 {
		limits.Genres = cfg.GenresLimit
	}
	if limits.TracksPerGenre == 0 {
		limits.TracksPerGenre = cfg.TracksPerGenre
	}
	if limits.TopNGenres == 0 {
		limits.TopNGenres = cfg.TopNGenres
	}
	if limits.TopNArtists == 0 {
		limits.TopNArtists = cfg.TopNArtists
	}
}

// --------------------------------------------------------------------------
// boundaries command
// --------------------------------------------------------------------------

func boundariesCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "boundaries",
		Short: "Download the country boundary file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config) error {
				fetcher := fetch.New(cfg.SpotifyRequestsPerMinute, logger)
				return geo.Download(ctx, fetcher, cfg.BoundariesURL, cfg.BoundariesPath(), force, logger)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-download even if the file exists")
	return cmd
}

// --------------------------------------------------------------------------
// maps command
// --------------------------------------------------------------------------

func mapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "Render static choropleth maps from the current snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config) error {
				d, err := dataset.Load(cfg.SnapshotPath(), cfg.BoundariesPath(), logger)
				if err != nil {
					return err
				}
				r, err := render.New(logger)
				if err != nil {
					return err
				}
				start := time.Now()
				if err := r.Maps(d, cfg.MapDir); err != nil {
					return err
				}
				logger.Info("Maps rendered",
					"dir", cfg.MapDir,
					"genres", len(d.Genres()),
					"duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// run handles config loading and context cancellation.
func run(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return fn(ctx, cfg)
}
