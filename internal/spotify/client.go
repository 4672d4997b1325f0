// Package spotify provides the typed client for the Spotify Web API calls
// the snapshot refresh makes: client-credentials auth, browse categories,
// track search, and available markets.
//
// All endpoints go through the shared rate-limited fetcher and use
// limit/offset pagination with a fixed page size of 50.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/beatborders/beatborders/internal/fetch"
)

// ErrNoToken marks a failed token exchange: the call failed or the
// response lacked an access token. Auth failures are fatal to a refresh
// run, so every Authenticate error wraps this sentinel and pagination
// never downgrades it to a skipped page.
var ErrNoToken = errors.New("no access token")

// pageSize is the Spotify maximum page size for list endpoints.
const pageSize = 50

// Client calls the Spotify Web API. It is not safe for concurrent use; the
// refresh run is strictly sequential.
type Client struct {
	fetcher      *fetch.Fetcher
	accountsURL  string
	baseURL      string
	clientID     string
	clientSecret string
	logger       *slog.Logger

	token     string
	expiresAt time.Time
}

// New creates a Client. accountsURL and baseURL point at the Spotify token
// and API endpoints; config carries the production defaults.
func New(accountsURL, baseURL, clientID, clientSecret string, fetcher *fetch.Fetcher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher:      fetcher,
		accountsURL:  accountsURL,
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
	}
}

// Authenticate performs the client-credentials exchange and caches the
// token. The refresh run calls this once up front so bad credentials fail
// the run before any catalog calls.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := c.fetcher.PostForm(ctx, c.accountsURL,
		url.Values{"grant_type": {"client_credentials"}},
		&fetch.BasicAuth{Username: c.clientID, Password: c.clientSecret})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: token exchange: %w", ErrNoToken, err)
	}

	var raw struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: decode token response: %w", ErrNoToken, err)
	}
	if raw.AccessToken == "" {
		return ErrNoToken
	}

	c.token = raw.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(raw.ExpiresIn) * time.Second)
	c.logger.Info("Spotify token obtained", "expires_in_seconds", raw.ExpiresIn)
	return nil
}

// bearer returns a valid token, re-authenticating when the cached one is
// within a second of expiry.
func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.token == "" || !c.expiresAt.After(time.Now().Add(time.Second)) {
		if err := c.Authenticate(ctx); err != nil {
			return "", err
		}
	}
	return c.token, nil
}

// get performs an authorized GET against an API path.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	return c.fetcher.Get(ctx, c.baseURL+path, query, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// paginate drives a limit/offset page loop. page fetches the page at the
// given offset and reports the raw item count the server returned. The loop
// stops once offsets reach total, on a short page (catalog exhausted), or
// on the first unavailable page, keeping everything collected so far.
// A lost token is not a failed page: re-auth failures propagate so the
// run can abort instead of recording empty pairs against a dead token.
// Callers truncate their result to total afterwards since pages always
// request the full page size.
func (c *Client) paginate(ctx context.Context, total int, page func(offset int) (int, error)) error {
	for offset := 0; offset < total; offset += pageSize {
		n, err := page(offset)
		if err != nil {
			if errors.Is(err, ErrNoToken) {
				return err
			}
			if errors.Is(err, fetch.ErrUnavailable) {
				c.logger.Warn("page fetch failed, keeping partial results", "offset", offset, "error", err)
				return nil
			}
			return err
		}
		if n < pageSize {
			break
		}
	}
	return nil
}
