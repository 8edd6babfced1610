// services/leaderboard_cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"lytic-game-system/utils"
)

// LeaderboardCache holds the current top games. Misses and errors fall through to the database.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]LeaderboardEntry, bool)
	Set(ctx context.Context, entries []LeaderboardEntry)
	Invalidate(ctx context.Context)
}

type NoopLeaderboardCache struct{}

func (NoopLeaderboardCache) Get(context.Context) ([]LeaderboardEntry, bool) { return nil, false }
func (NoopLeaderboardCache) Set(context.Context, []LeaderboardEntry) {}
func (NoopLeaderboardCache) Invalidate(context.Context) {}

const leaderboardKey = "lytic:leaderboard:top"

type RedisLeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLeaderboardCache(rdb *redis.Client, ttl time.Duration) *RedisLeaderboardCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RedisLeaderboardCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (c *RedisLeaderboardCache) Get(ctx context.Context) ([]LeaderboardEntry, bool) {
	raw, err := c.rdb.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			utils.Log.Warnw("[CACHE] ⚠️ Leaderboard cache read failed", "error", err)
		}
		return nil, false
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *RedisLeaderboardCache) Set(ctx context.Context, entries []LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, leaderboardKey, raw, c.ttl).Err(); err != nil {
		utils.Log.Warnw("[CACHE] ⚠️ Leaderboard cache write failed", "error", err)
	}
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, leaderboardKey).Err(); err != nil {
		utils.Log.Warnw("[CACHE] ⚠️ Leaderboard cache invalidation failed", "error", err)
	}
}
