package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// RedisConfig describes the Redis connection backing a RedisStore.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
	// MaxEntries caps the sorted set; 0 keeps everything.
	MaxEntries int64
}

// RedisStore keeps history in a sorted set scored by start time in
// milliseconds, one JSON member per run.
type RedisStore struct {
	client *redis.Client
	key    string
	max    int64
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, key: keyOrDefault(cfg.Key), max: cfg.MaxEntries}, nil
}

func keyOrDefault(key string) string {
	if key == "" {
		return "crystaldolphin:history"
	}
	return key
}

func score(t time.Time) float64 { return float64(t.UnixMilli()) }

func (s *RedisStore) Record(ctx context.Context, e schema.HistoryEntry) error {
	member, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.key, redis.Z{Score: score(e.StartedAt), Member: member})
	if s.max > 0 {
		// Keep the newest max members.
		pipe.ZRemRangeByRank(ctx, s.key, 0, -s.max-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (s *RedisStore) Since(ctx context.Context, since time.Time) ([]schema.HistoryEntry, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min: strconv.FormatFloat(score(since), 'f', 0, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return decodeEntries(members)
}

func decodeEntries(members []string) ([]schema.HistoryEntry, error) {
	out := make([]schema.HistoryEntry, 0, len(members))
	for _, m := range members {
		var e schema.HistoryEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
