package playout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fast-playout/internal/platform/metrics"
)

// ErrEmptyPlaylist is returned when a channel exists but has no assets to
// advance through.
var ErrEmptyPlaylist = errors.New("channel playlist is empty")

// defaultTitle is served when an asset carries no title.
const defaultTitle = "No title"

// maxAdvanceAttempts bounds how often an advancement is redone when a
// concurrent request wins the position compare-and-swap.
const maxAdvanceAttempts = 3

// StitchClient is what the advancer needs from the stitching layer.
type StitchClient interface {
	Stitch(ctx context.Context, assetURL string, breaks []Break) string
}

// Service is the playlist advancer: it reads a channel's position, computes
// the next one, has the asset stitched, and persists the new position.
type Service struct {
	store    ChannelStore
	stitcher StitchClient
	filler   FillerAd
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewService returns a Service advancing channels in store and stitching via
// stitcher. Metrics may be nil to disable metric recording (e.g. in tests).
func NewService(store ChannelStore, stitcher StitchClient, filler FillerAd, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, stitcher: stitcher, filler: filler, log: log, metrics: m}
}

// nextPosition is the playlist transition function. PositionNeverPlayed and
// the last index both map to 0; everything else increments. The result is
// always in [0, n-1] for n > 0; callers must guard n == 0.
func nextPosition(pos, n int) int {
	if pos < 0 || pos >= n-1 {
		return 0
	}
	return pos + 1
}

// GetNextVod advances the channel and returns the next playable item.
//
// The new position is persisted only after stitching resolved, so a crash
// mid-request re-serves the same asset on retry rather than skipping it.
// A lost compare-and-swap means another request advanced the channel first;
// the whole advancement is redone from a fresh read, at most
// maxAdvanceAttempts times.
func (s *Service) GetNextVod(ctx context.Context, channelID string) (NextVod, error) {
	for attempt := 1; attempt <= maxAdvanceAttempts; attempt++ {
		ch, err := s.store.GetChannel(ctx, channelID)
		if err != nil {
			return NextVod{}, err
		}
		if len(ch.Assets) == 0 {
			return NextVod{}, fmt.Errorf("channel %s: %w", channelID, ErrEmptyPlaylist)
		}

		next := nextPosition(ch.Position, len(ch.Assets))
		asset := ch.Assets[next]

		plan := PlanBreaks(asset, ch.HouseAds, s.filler)
		hlsURL := s.stitcher.Stitch(ctx, asset.URL, plan)

		err = s.store.SetPosition(ctx, channelID, ch.Position, next)
		if errors.Is(err, ErrPositionConflict) {
			if s.metrics != nil {
				s.metrics.IncPositionConflicts()
			}
			s.log.Debug("position conflict, retrying advancement",
				slog.String("channel_id", channelID),
				slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return NextVod{}, err
		}

		title := asset.Title
		if title == "" {
			title = defaultTitle
		}
		if s.metrics != nil {
			s.metrics.IncNextVodServed()
		}
		return NextVod{ID: asset.ID, Title: title, HlsURL: hlsURL}, nil
	}

	return NextVod{}, fmt.Errorf("advance channel %s: %w", channelID, ErrPositionConflict)
}
