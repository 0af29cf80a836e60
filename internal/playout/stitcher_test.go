package playout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAssetURL = "https://cdn.example.com/a0.mp4"

func newTestStitcher(t *testing.T, endpoint string, timeout time.Duration) *Stitcher {
	t.Helper()
	s, err := NewStitcher(endpoint, timeout, testLogger(), nil)
	require.NoError(t, err)
	return s
}

func TestStitcher_success_absolute_uri(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"uri": "https://edge.example.com/stitched/42.m3u8"})
	}))
	defer srv.Close()

	s := newTestStitcher(t, srv.URL+"/stitch", 0)
	got := s.Stitch(context.Background(), testAssetURL, nil)
	assert.Equal(t, "https://edge.example.com/stitched/42.m3u8", got)
}

func TestStitcher_success_relative_uri_resolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"uri": "/sessions/42/master.m3u8"})
	}))
	defer srv.Close()

	s := newTestStitcher(t, srv.URL+"/stitch", 0)
	got := s.Stitch(context.Background(), testAssetURL, nil)
	assert.Equal(t, srv.URL+"/sessions/42/master.m3u8", got)
}

func TestStitcher_sends_uri_and_breaks(t *testing.T) {
	var received stitchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"uri": "/out.m3u8"})
	}))
	defer srv.Close()

	breaks := []Break{
		{Pos: 10000, Duration: 5000, URL: "https://ads.example.com/h1.mp4"},
		{Pos: 15000, Duration: 5000, URL: "https://ads.example.com/h2.mp4"},
	}
	s := newTestStitcher(t, srv.URL, 0)
	s.Stitch(context.Background(), testAssetURL, breaks)

	assert.Equal(t, testAssetURL, received.URI)
	assert.Equal(t, breaks, received.Breaks)
}

func TestStitcher_http_error_falls_back(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"reason": "no capacity"})
	}))
	defer srv.Close()

	s := newTestStitcher(t, srv.URL, 0)
	got := s.Stitch(context.Background(), testAssetURL, nil)
	assert.Equal(t, testAssetURL, got, "non-success response must fall back to the unstitched url")
}

func TestStitcher_unreachable_falls_back(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	s := newTestStitcher(t, endpoint, 0)
	got := s.Stitch(context.Background(), testAssetURL, nil)
	assert.Equal(t, testAssetURL, got, "transport failure must fall back to the unstitched url")
}

func TestStitcher_malformed_body_falls_back(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	s := newTestStitcher(t, srv.URL, 0)
	got := s.Stitch(context.Background(), testAssetURL, nil)
	assert.Equal(t, testAssetURL, got)
}

func TestStitcher_missing_uri_falls_back(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	s := newTestStitcher(t, srv.URL, 0)
	got := s.Stitch(context.Background(), testAssetURL, nil)
	assert.Equal(t, testAssetURL, got)
}

func TestStitcher_timeout_falls_back(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	s := newTestStitcher(t, srv.URL, 50*time.Millisecond)
	got := s.Stitch(context.Background(), testAssetURL, nil)
	assert.Equal(t, testAssetURL, got, "a hanging stitcher must fall back, not hang the request")
}

func TestNewStitcher_invalid_endpoint(t *testing.T) {
	_, err := NewStitcher("://not-a-url", 0, testLogger(), nil)
	assert.Error(t, err)
}
