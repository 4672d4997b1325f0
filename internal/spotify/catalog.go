package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// --------------------------------------------------------------------------
// Canonical types
// --------------------------------------------------------------------------

// Category is one browse category. Category names double as the genre
// labels the aggregation is keyed on.
type Category struct {
	ID   string
	Name string
}

// Artist is a track credit. Only the name participates in aggregation.
type Artist struct {
	Name string `json:"name"`
}

// Track carries the search-result fields aggregation needs.
type Track struct {
	Name       string
	Popularity int
	Artists    []Artist
}

// --------------------------------------------------------------------------
// Browse categories
// --------------------------------------------------------------------------

type categoryRaw struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Categories fetches up to total browse categories.
func (c *Client) Categories(ctx context.Context, total int) ([]Category, error) {
	var items []Category
	err := c.paginate(ctx, total, func(offset int) (int, error) {
		body, err := c.get(ctx, "/browse/categories", url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		})
		if err != nil {
			return 0, err
		}

		var raw struct {
			Categories struct {
				Items []categoryRaw `json:"items"`
				Total int           `json:"total"`
			} `json:"categories"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return 0, fmt.Errorf("decode categories page: %w", err)
		}

		for _, it := range raw.Categories.Items {
			if it.ID == "" || it.Name == "" {
				c.logger.Warn("skipping malformed category", "id", it.ID, "name", it.Name)
				continue
			}
			items = append(items, Category{ID: it.ID, Name: it.Name})
		}
		return len(raw.Categories.Items), nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) > total {
		items = items[:total]
	}
	return items, nil
}

// --------------------------------------------------------------------------
// Track search
// --------------------------------------------------------------------------

type trackRaw struct {
	Name       string `json:"name"`
	Popularity int    `json:"popularity"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// SearchTracks fetches up to total tracks matching a genre query, optionally
// scoped to a market (ISO 3166-1 alpha-2 code; empty means global).
func (c *Client) SearchTracks(ctx context.Context, genre, market string, total int) ([]Track, error) {
	var items []Track
	err := c.paginate(ctx, total, func(offset int) (int, error) {
		q := url.Values{
			"q":      {fmt.Sprintf(`genre:"%s"`, genre)},
			"type":   {"track"},
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		if market != "" {
			q.Set("market", market)
		}

		body, err := c.get(ctx, "/search", q)
		if err != nil {
			return 0, err
		}

		var raw struct {
			Tracks struct {
				Items []trackRaw `json:"items"`
			} `json:"tracks"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return 0, fmt.Errorf("decode search page: %w", err)
		}

		for _, it := range raw.Tracks.Items {
			items = append(items, normalizeTrack(it))
		}
		return len(raw.Tracks.Items), nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) > total {
		items = items[:total]
	}
	return items, nil
}

// normalizeTrack validates search items at the decode boundary: popularity
// never goes negative and unnamed artist credits are dropped.
func normalizeTrack(raw trackRaw) Track {
	t := Track{Name: raw.Name, Popularity: raw.Popularity}
	if t.Popularity < 0 {
		t.Popularity = 0
	}
	t.Artists = make([]Artist, 0, len(raw.Artists))
	for _, a := range raw.Artists {
		if a.Name == "" {
			continue
		}
		t.Artists = append(t.Artists, Artist{Name: a.Name})
	}
	return t
}

// --------------------------------------------------------------------------
// Available markets
// --------------------------------------------------------------------------

// Markets fetches up to total available market codes.
func (c *Client) Markets(ctx context.Context, total int) ([]string, error) {
	var items []string
	err := c.paginate(ctx, total, func(offset int) (int, error) {
		body, err := c.get(ctx, "/markets", url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		})
		if err != nil {
			return 0, err
		}

		var raw struct {
			Markets []string `json:"markets"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return 0, fmt.Errorf("decode markets page: %w", err)
		}

		items = append(items, raw.Markets...)
		return len(raw.Markets), nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) > total {
		items = items[:total]
	}
	return items, nil
}
