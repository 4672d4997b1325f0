package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// ErrNoISOColumn means no property alias for the ISO 3166-1 alpha-2 code
// exists in the boundary file. Nothing can be joined against such a file;
// callers treat this as fatal.
var ErrNoISOColumn = errors.New("no ISO 3166-1 alpha-2 property found in boundaries")

// isoAliases are the accepted ISO-2 property names, checked in priority
// order, case-insensitively.
var isoAliases = []string{"iso_a2", "iso2", "iso_3166_1_alpha_2", "iso3166-1-alpha-2"}

// nameAliases are the exact-match country-name properties, tried before
// falling back to any property containing "name".
var nameAliases = []string{"name", "admin"}

// Normalize converts a raw feature collection into keyed boundary records.
// The ISO-2 property resolves through the alias table and its values are
// uppercased; a missing property fails with ErrNoISOColumn. The country
// name is best-effort. Features without a code are dropped and the first
// record wins on duplicate codes, keeping codes unique.
func Normalize(fc *FeatureCollection, logger *slog.Logger) (*Boundaries, error) {
	if logger == nil {
		logger = slog.Default()
	}

	keys := propertyKeys(fc)
	isoKey, ok := matchAlias(keys, isoAliases)
	if !ok {
		return nil, fmt.Errorf("%w: properties are %v", ErrNoISOColumn, keys)
	}
	nameKey, hasName := matchName(keys)
	if !hasName {
		logger.Warn("no country-name property found, names omitted", "properties", keys)
	}

	b := &Boundaries{byCode: make(map[string]int, len(fc.Features))}
	for _, f := range fc.Features {
		code := strings.ToUpper(strings.TrimSpace(stringProp(f.Properties, isoKey)))
		if code == "" {
			logger.Warn("skipping feature without ISO code", "name", stringProp(f.Properties, nameKey))
			continue
		}
		if _, dup := b.byCode[code]; dup {
			logger.Warn("duplicate ISO code, keeping first record", "code", code)
			continue
		}
		rec := BoundaryRecord{ISOA2: code, Geometry: f.Geometry}
		if hasName {
			rec.Name = stringProp(f.Properties, nameKey)
		}
		b.byCode[code] = len(b.Records)
		b.Records = append(b.Records, rec)
	}

	logger.Info("Boundaries normalized",
		"records", len(b.Records),
		"iso_property", isoKey,
		"name_property", nameKey)
	return b, nil
}

// propertyKeys returns the sorted union of property names across features.
func propertyKeys(fc *FeatureCollection) []string {
	set := make(map[string]struct{})
	for _, f := range fc.Features {
		for k := range f.Properties {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchAlias finds the first alias present among keys, case-insensitively,
// returning the actual key as it appears in the file.
func matchAlias(keys []string, aliases []string) (string, bool) {
	lower := make(map[string]string, len(keys))
	for _, k := range keys {
		if _, exists := lower[strings.ToLower(k)]; !exists {
			lower[strings.ToLower(k)] = k
		}
	}
	for _, alias := range aliases {
		if actual, ok := lower[alias]; ok {
			return actual, true
		}
	}
	return "", false
}

// matchName resolves the country-name property: exact aliases first, then
// any property containing "name" (alphabetical order for determinism).
func matchName(keys []string) (string, bool) {
	if k, ok := matchAlias(keys, nameAliases); ok {
		return k, true
	}
	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), "name") {
			return k, true
		}
	}
	return "", false
}

// stringProp reads a property as a string; anything else reads as empty.
func stringProp(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
