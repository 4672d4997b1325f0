package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/beatborders/beatborders/internal/fetch"
)

// Download fetches the boundary file to path unless it already exists;
// force re-downloads. The body must parse as a feature collection before
// it replaces anything on disk, and the write is temp-file + rename like
// the snapshot store.
func Download(ctx context.Context, f *fetch.Fetcher, url, path string, force bool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			logger.Info("Boundary file present, skipping download", "path", path)
			return nil
		}
	}

	logger.Info("Downloading boundaries", "url", url)
	body, err := f.Get(ctx, url, nil, nil)
	if err != nil {
		return fmt.Errorf("download boundaries: %w", err)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return fmt.Errorf("downloaded boundaries are not valid GeoJSON: %w", err)
	}
	if len(fc.Features) == 0 {
		return fmt.Errorf("downloaded boundaries contain no features")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp boundaries: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write boundaries: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp boundaries: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace boundaries: %w", err)
	}

	logger.Info("Boundaries downloaded", "path", path, "features", len(fc.Features))
	return nil
}
