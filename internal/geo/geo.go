// Package geo loads country-boundary GeoJSON and normalizes its properties
// into typed records keyed by ISO 3166-1 alpha-2 code. Geometry stays an
// opaque json.RawMessage end to end; nothing here does geometry math.
package geo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// FeatureCollection mirrors the GeoJSON document shape.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one boundary feature. Geometry passes through untouched.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// BoundaryRecord is one normalized country boundary.
type BoundaryRecord struct {
	ISOA2    string
	Name     string
	Geometry json.RawMessage
}

// Boundaries holds normalized records in file order plus a code index for
// constant-time lookup.
type Boundaries struct {
	Records []BoundaryRecord
	byCode  map[string]int
}

// Get returns the record for an uppercase ISO-2 code.
func (b *Boundaries) Get(code string) (BoundaryRecord, bool) {
	i, ok := b.byCode[code]
	if !ok {
		return BoundaryRecord{}, false
	}
	return b.Records[i], true
}

// Len returns the number of records.
func (b *Boundaries) Len() int { return len(b.Records) }

// Load reads a boundary file and normalizes it.
func Load(path string, logger *slog.Logger) (*Boundaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode boundaries %s: %w", path, err)
	}
	return Normalize(&fc, logger)
}
