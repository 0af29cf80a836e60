package playout

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrChannelNotFound is returned when no channel carries the requested
	// channel identifier.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrPositionConflict is returned by SetPosition when the stored position
	// no longer matches the caller's expected value, i.e. a concurrent request
	// advanced the channel first.
	ErrPositionConflict = errors.New("channel position changed concurrently")

	// ErrStoreUnavailable wraps transport failures talking to the backing
	// store. Handlers map it to a 5xx response.
	ErrStoreUnavailable = errors.New("channel store unavailable")
)

// ChannelStore is the persistence abstraction for channel state.
// Implementations can be in-memory or remote; the advancer does not care
// which one it talks to.
//
// A missing channel is always surfaced as ErrChannelNotFound, never folded
// into a sentinel position value. PositionNeverPlayed only ever means
// "channel exists but has not played yet".
type ChannelStore interface {
	// GetChannel returns the channel carrying the given identifier.
	GetChannel(ctx context.Context, channelID string) (*Channel, error)

	// SetPosition overwrites the channel's position with next, but only if
	// the stored position still equals old; otherwise it returns
	// ErrPositionConflict. If the channel no longer exists by the time of
	// the write the call is a silent no-op.
	SetPosition(ctx context.Context, channelID string, old, next int) error

	// PutChannel creates or replaces a channel document. Used by the seed
	// loader and tests; channel provisioning is otherwise out of scope.
	PutChannel(ctx context.Context, ch *Channel) error

	// ChannelCount returns the number of stored channels. Used for metrics.
	ChannelCount(ctx context.Context) (int, error)
}

// MemoryStore is a concurrency-safe in-memory ChannelStore, the default
// backend and the one tests run against.
type MemoryStore struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewMemoryStore returns a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{channels: make(map[string]*Channel)}
}

// GetChannel implements ChannelStore.GetChannel. The returned value is a
// copy; callers never see later mutations of stored state.
func (s *MemoryStore) GetChannel(_ context.Context, channelID string) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[channelID]
	if !ok {
		return nil, ErrChannelNotFound
	}
	cp := *ch
	return &cp, nil
}

// SetPosition implements ChannelStore.SetPosition.
func (s *MemoryStore) SetPosition(_ context.Context, channelID string, old, next int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[channelID]
	if !ok {
		// Channel disappeared between read and write; nothing to update.
		return nil
	}
	if ch.Position != old {
		return ErrPositionConflict
	}
	ch.Position = next
	return nil
}

// PutChannel implements ChannelStore.PutChannel.
func (s *MemoryStore) PutChannel(_ context.Context, ch *Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ch
	s.channels[ch.ChannelID] = &cp
	return nil
}

// ChannelCount implements ChannelStore.ChannelCount.
func (s *MemoryStore) ChannelCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels), nil
}
