package playout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelKeyPrefix = "channel:"

// RedisStore is a Redis-backed ChannelStore. Each channel is one JSON
// document under "channel:<channelId>"; position updates are a WATCH/MULTI
// compare-and-swap so two replicas advancing the same channel cannot both
// persist the same position.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(cfg RedisConfig, log *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Info("connected to redis channel store", slog.String("addr", cfg.Addr), slog.Int("db", cfg.DB))
	return &RedisStore{client: client, log: log}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client, log *slog.Logger) *RedisStore {
	return &RedisStore{client: client, log: log}
}

func channelKey(channelID string) string {
	return channelKeyPrefix + channelID
}

// GetChannel implements ChannelStore.GetChannel.
func (s *RedisStore) GetChannel(ctx context.Context, channelID string) (*Channel, error) {
	raw, err := s.client.Get(ctx, channelKey(channelID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, channelID, err)
	}

	var ch Channel
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("decode channel %s: %w", channelID, err)
	}
	return &ch, nil
}

// SetPosition implements ChannelStore.SetPosition as a read-modify-write of
// the full document, guarded by WATCH so a concurrent write aborts the
// transaction instead of silently losing an advancement.
func (s *RedisStore) SetPosition(ctx context.Context, channelID string, old, next int) error {
	key := channelKey(channelID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// Channel disappeared between read and write; nothing to update.
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, channelID, err)
		}

		var ch Channel
		if err := json.Unmarshal(raw, &ch); err != nil {
			return fmt.Errorf("decode channel %s: %w", channelID, err)
		}
		if ch.Position != old {
			return ErrPositionConflict
		}
		ch.Position = next

		out, err := json.Marshal(&ch)
		if err != nil {
			return fmt.Errorf("encode channel %s: %w", channelID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrPositionConflict
	}
	return err
}

// PutChannel implements ChannelStore.PutChannel.
func (s *RedisStore) PutChannel(ctx context.Context, ch *Channel) error {
	raw, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("encode channel %s: %w", ch.ChannelID, err)
	}
	if err := s.client.Set(ctx, channelKey(ch.ChannelID), raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStoreUnavailable, ch.ChannelID, err)
	}
	return nil
}

// ChannelCount implements ChannelStore.ChannelCount by scanning the channel
// key prefix. Called only on metrics scrapes, so the SCAN cost is acceptable.
func (s *RedisStore) ChannelCount(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, channelKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// Ping checks store availability; used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
