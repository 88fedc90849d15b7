package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
)

// RedisBackend keeps state in two Redis hashes, <prefix>:seen and <prefix>:active,
// with JSON-encoded values keyed by identity hash, plus the <prefix>:last_summary string
type RedisBackend struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

// NewRedisBackend connects to Redis and verifies the connection
func NewRedisBackend(ctx context.Context, addr string, db int, prefix string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, apperrors.NewStore("redis", fmt.Sprintf("connect %s", addr), err)
	}
	return &RedisBackend{client: client, prefix: prefix, log: logger.ForStore()}, nil
}

func (b *RedisBackend) seenKey() string {
	return b.prefix + ":seen"
}

func (b *RedisBackend) activeKey() string {
	return b.prefix + ":active"
}

func (b *RedisBackend) summaryKey() string {
	return b.prefix + ":last_summary"
}

// Load reads both hashes
func (b *RedisBackend) Load(ctx context.Context) (*State, error) {
	state := NewState()

	seen, err := b.client.HGetAll(ctx, b.seenKey()).Result()
	if err != nil {
		return nil, apperrors.NewStore("redis", "load seen", err)
	}
	for hash, raw := range seen {
		var entry SeenEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, apperrors.NewStore("redis", fmt.Sprintf("seen entry %s is corrupt", hash), err)
		}
		state.Seen[hash] = entry
	}

	active, err := b.client.HGetAll(ctx, b.activeKey()).Result()
	if err != nil {
		return nil, apperrors.NewStore("redis", "load active", err)
	}
	for hash, raw := range active {
		var entry ActiveEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, apperrors.NewStore("redis", fmt.Sprintf("active entry %s is corrupt", hash), err)
		}
		state.Active[hash] = entry
	}

	lastSummary, err := b.client.Get(ctx, b.summaryKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, apperrors.NewStore("redis", "load last summary", err)
	}
	state.LastSummary = lastSummary

	b.log.Debug().Int("seen", len(state.Seen)).Int("active", len(state.Active)).Msg("Loaded state")
	return state, nil
}

// Save replaces both hashes in one MULTI/EXEC transaction
func (b *RedisBackend) Save(ctx context.Context, s *State) error {
	seen := make(map[string]interface{}, len(s.Seen))
	for hash, entry := range s.Seen {
		data, err := json.Marshal(entry)
		if err != nil {
			return apperrors.NewStore("redis", "encode seen entry", err)
		}
		seen[hash] = data
	}
	active := make(map[string]interface{}, len(s.Active))
	for hash, entry := range s.Active {
		data, err := json.Marshal(entry)
		if err != nil {
			return apperrors.NewStore("redis", "encode active entry", err)
		}
		active[hash] = data
	}

	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.seenKey(), b.activeKey(), b.summaryKey())
		if len(seen) > 0 {
			pipe.HSet(ctx, b.seenKey(), seen)
		}
		if len(active) > 0 {
			pipe.HSet(ctx, b.activeKey(), active)
		}
		if s.LastSummary != "" {
			pipe.Set(ctx, b.summaryKey(), s.LastSummary, 0)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewStore("redis", "save state", err)
	}

	b.log.Debug().Int("seen", len(seen)).Int("active", len(active)).Msg("Saved state")
	return nil
}

// Close closes the Redis connection
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
