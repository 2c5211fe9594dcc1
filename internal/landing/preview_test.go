package landing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const page = `<!doctype html>
<html lang="en">
<head>
  <title>Fallback title</title>
  <meta property="og:title" content="Summer Sale">
  <meta name="description" content="Everything half off">
  <meta property="og:site_name" content="Shop">
  <meta property="og:image" content="/img/banner.png">
</head>
<body></body>
</html>`

func newFetcher(retries int) *Fetcher {
	f := NewFetcher(1000, retries, zap.NewNop())
	f.backoff = time.Millisecond
	return f
}

func TestFetchParsesOpenGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	p, err := newFetcher(0).Fetch(context.Background(), srv.URL+"/landing")
	require.NoError(t, err)

	assert.Equal(t, "Summer Sale", p.Title)
	assert.Equal(t, "Everything half off", p.Description)
	assert.Equal(t, "Shop", p.SiteName)
	assert.Equal(t, "en", p.Lang)
	assert.Equal(t, srv.URL+"/img/banner.png", p.ImageURL)
}

func TestFetchFallsBackToTitleTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title> Plain </title></head></html>`))
	}))
	defer srv.Close()

	p, err := newFetcher(0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Plain", p.Title)
	assert.Empty(t, p.ImageURL)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	p, err := newFetcher(2).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", p.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newFetcher(3).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "not a url", "https://"} {
		_, err := newFetcher(0).Fetch(context.Background(), u)
		assert.Error(t, err, u)
	}
}
