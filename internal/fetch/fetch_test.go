package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestFetcher() (*Fetcher, *sleepRecorder) {
	f := New(60000, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := &sleepRecorder{}
	f.sleep = rec.sleep
	return f, rec
}

func TestClassify(t *testing.T) {
	cases := []struct {
		status int
		want   action
	}{
		{200, actReturn},
		{204, actReturn},
		{304, actReturn},
		{400, actReject},
		{403, actReject},
		{404, actReject},
		{429, actRetryAfter},
		{500, actBackoff},
		{502, actBackoff},
		{503, actBackoff},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classify(c.status), "status %d", c.status)
	}
}

func TestGetSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f, rec := newTestFetcher()
	body, err := f.Get(context.Background(), srv.URL,
		url.Values{"limit": {"50"}},
		map[string]string{"Authorization": "Bearer tok"})

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, rec.delays)
}

func TestClientErrorNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f, rec := newTestFetcher()
	body, err := f.Get(context.Background(), srv.URL, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, body)
	assert.Equal(t, int32(1), calls, "4xx must not be retried")
	assert.Empty(t, rec.delays)
}

func TestRateLimitedThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f, rec := newTestFetcher()
	body, err := f.Get(context.Background(), srv.URL, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, int32(2), calls)
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.delays)
}

func TestRateLimitedMalformedRetryAfter(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "soon")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f, rec := newTestFetcher()
	_, err := f.Get(context.Background(), srv.URL, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, rec.delays)
}

func TestRateLimitedExhaustsAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f, rec := newTestFetcher()
	_, err := f.Get(context.Background(), srv.URL, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.delays)
}

func TestServerErrorBackoff(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f, rec := newTestFetcher()
	_, err := f.Get(context.Background(), srv.URL, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestServerErrorThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f, rec := newTestFetcher()
	body, err := f.Get(context.Background(), srv.URL, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestTransportErrorBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	f, rec := newTestFetcher()
	_, err := f.Get(context.Background(), srv.URL, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestPostFormBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	f, _ := newTestFetcher()
	body, err := f.PostForm(context.Background(), srv.URL,
		url.Values{"grant_type": {"client_credentials"}},
		&BasicAuth{Username: "id", Password: "secret"})

	require.NoError(t, err)
	assert.Contains(t, string(body), "access_token")
}

func TestDoContextCanceled(t *testing.T) {
	f, _ := newTestFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Get(ctx, "http://127.0.0.1:0", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryAfterParse(t *testing.T) {
	cases := []struct {
		header string
		want   time.Duration
	}{
		{"", time.Second},
		{"5", 5 * time.Second},
		{" 2 ", 2 * time.Second},
		{"soon", time.Second},
		{"-1", time.Second},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, retryAfter(c.header), "header %q", c.header)
	}
}

func TestBackoffDoubles(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
}
