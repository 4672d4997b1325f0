// Package fetch provides the rate-limited, retrying HTTP primitive shared by
// every outbound call (Spotify endpoints, boundary download).
//
// Retry policy: up to 3 attempts per call. 429 responses honor the server's
// Retry-After delay, other 4xx responses fail immediately, 5xx responses and
// transport errors back off exponentially (2^attempt seconds). Every attempt
// runs under a 10 second timeout and waits on the shared token bucket first.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ErrUnavailable marks a resource the fetcher gave up on: the server
// rejected the request or all attempts failed. Callers skip the resource
// and keep whatever they already collected.
var ErrUnavailable = errors.New("resource unavailable")

const (
	maxAttempts       = 3
	defaultTimeout    = 10 * time.Second
	defaultRetryAfter = time.Second
)

// action is the retry decision for one attempt's outcome.
type action int

const (
	actReturn     action = iota // success, hand the body to the caller
	actRetryAfter               // 429, wait the server-provided delay
	actReject                   // other 4xx, give up immediately
	actBackoff                  // 5xx, exponential backoff
)

// classify maps an HTTP status to a retry action. Transport errors never
// reach here; they take the actBackoff path directly.
func classify(status int) action {
	switch {
	case status < 400:
		return actReturn
	case status == http.StatusTooManyRequests:
		return actRetryAfter
	case status < 500:
		return actReject
	default:
		return actBackoff
	}
}

// BasicAuth carries credentials for the token exchange call shape.
type BasicAuth struct {
	Username string
	Password string
}

// Options carries per-request extras.
type Options struct {
	Query     url.Values
	Headers   map[string]string
	Form      url.Values
	BasicAuth *BasicAuth
}

// Fetcher issues throttled HTTP requests under the package retry policy.
// A single instance is shared by all outbound consumers so the throttle
// covers the whole process.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	// sleep is stubbed in tests to observe retry delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher throttled to requestsPerMinute outbound calls.
func New(requestsPerMinute int, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Fetcher{
		client:  resty.New().SetTimeout(defaultTimeout),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Get fetches a URL with optional query parameters and headers.
func (f *Fetcher) Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) ([]byte, error) {
	return f.Do(ctx, http.MethodGet, rawURL, Options{Query: query, Headers: headers})
}

// PostForm posts urlencoded form data, optionally with basic auth.
func (f *Fetcher) PostForm(ctx context.Context, rawURL string, form url.Values, auth *BasicAuth) ([]byte, error) {
	return f.Do(ctx, http.MethodPost, rawURL, Options{Form: form, BasicAuth: auth})
}

// Do performs one logical call under the retry policy. It returns the
// response body on success and an error wrapping ErrUnavailable when the
// resource could not be fetched. Context cancellation passes through
// unchanged so callers can distinguish an aborted run from a skipped
// resource.
func (f *Fetcher) Do(ctx context.Context, method, rawURL string, opts Options) ([]byte, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := f.send(ctx, method, rawURL, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("request failed", "url", rawURL, "attempt", attempt, "error", err)
			if attempt < maxAttempts {
				if err := f.sleep(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		status := resp.StatusCode()
		switch classify(status) {
		case actReturn:
			return resp.Body(), nil

		case actRetryAfter:
			delay := retryAfter(resp.Header().Get("Retry-After"))
			f.logger.Warn("rate limited", "url", rawURL, "attempt", attempt, "retry_after", delay)
			if attempt < maxAttempts {
				if err := f.sleep(ctx, delay); err != nil {
					return nil, err
				}
			}

		case actReject:
			f.logger.Warn("request rejected", "url", rawURL, "status", status, "body", truncate(resp.Body(), 200))
			return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, rawURL, status)

		case actBackoff:
			f.logger.Warn("server error", "url", rawURL, "status", status, "attempt", attempt)
			if attempt < maxAttempts {
				if err := f.sleep(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
			}
		}
	}

	f.logger.Error("request failed after retries", "url", rawURL, "attempts", maxAttempts)
	return nil, fmt.Errorf("%w: %s failed after %d attempts", ErrUnavailable, rawURL, maxAttempts)
}

func (f *Fetcher) send(ctx context.Context, method, rawURL string, opts Options) (*resty.Response, error) {
	req := f.client.R().SetContext(ctx)
	if len(opts.Query) > 0 {
		req.SetQueryParamsFromValues(opts.Query)
	}
	for k, v := range opts.Headers {
		req.SetHeader(k, v)
	}
	if len(opts.Form) > 0 {
		req.SetFormDataFromValues(opts.Form)
	}
	if opts.BasicAuth != nil {
		req.SetBasicAuth(opts.BasicAuth.Username, opts.BasicAuth.Password)
	}
	return req.Execute(method, rawURL)
}

// backoff returns the exponential delay after failed attempt n (2s, 4s, ...).
func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// retryAfter parses a Retry-After header, defaulting to one second when the
// header is absent or malformed.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// truncate returns a truncated string representation for log messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
