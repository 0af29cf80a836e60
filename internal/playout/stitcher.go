package playout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"fast-playout/internal/platform/metrics"
)

// DefaultStitchTimeout bounds a single stitch call. A hanging stitcher must
// degrade to the unstitched URL, not hang the playback request.
const DefaultStitchTimeout = 5 * time.Second

// stitchRequest is the wire format sent to the stitching endpoint.
type stitchRequest struct {
	URI    string  `json:"uri"`
	Breaks []Break `json:"breaks"`
}

// stitchResponse is the wire format returned by the stitching endpoint:
// URI on success, Reason on failure.
type stitchResponse struct {
	URI    string `json:"uri"`
	Reason string `json:"reason"`
}

// Stitcher sends an asset URL plus break plan to a remote stitching endpoint
// and returns the stitched, playable URL. Every failure mode (transport
// error, non-2xx status, malformed body, missing or unresolvable URI) falls
// back to the original asset URL: a broken stitcher never blocks playback,
// it only costs the ads.
type Stitcher struct {
	endpoint *url.URL
	client   *http.Client
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewStitcher returns a Stitcher for the given endpoint URL. timeout <= 0
// falls back to DefaultStitchTimeout. Metrics may be nil to disable metric
// recording (e.g. in tests).
func NewStitcher(endpoint string, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) (*Stitcher, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid stitcher endpoint %q: %w", endpoint, err)
	}
	if timeout <= 0 {
		timeout = DefaultStitchTimeout
	}
	return &Stitcher{
		endpoint: u,
		client:   &http.Client{Timeout: timeout},
		log:      log,
		metrics:  m,
	}, nil
}

// Stitch returns the playable URL for assetURL with the given break plan
// inserted. It never returns an error; see the type comment for the fallback
// contract.
func (s *Stitcher) Stitch(ctx context.Context, assetURL string, breaks []Break) string {
	body, err := json.Marshal(stitchRequest{URI: assetURL, Breaks: breaks})
	if err != nil {
		return s.fallback(assetURL, "encode stitch request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return s.fallback(assetURL, "build stitch request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return s.fallback(assetURL, "stitcher unreachable", err)
	}
	defer resp.Body.Close()

	var sr stitchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&sr); err != nil {
		return s.fallback(assetURL, "malformed stitcher response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn("stitcher rejected request",
			slog.Int("status", resp.StatusCode),
			slog.String("reason", sr.Reason),
			slog.String("asset_url", assetURL))
		if s.metrics != nil {
			s.metrics.IncStitchFailures()
		}
		return assetURL
	}

	if sr.URI == "" {
		return s.fallback(assetURL, "stitcher response missing uri", nil)
	}
	ref, err := url.Parse(sr.URI)
	if err != nil {
		return s.fallback(assetURL, "unresolvable stitched uri", err)
	}
	return s.endpoint.ResolveReference(ref).String()
}

func (s *Stitcher) fallback(assetURL, msg string, err error) string {
	attrs := []any{slog.String("asset_url", assetURL)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.log.Warn(msg, attrs...)
	if s.metrics != nil {
		s.metrics.IncStitchFailures()
	}
	return assetURL
}
