package phrases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a best-effort Redis read cache for per-user phrase lists.
// Misses and Redis failures fall through to the repository; writes invalidate.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

const defaultCacheTTL = 5 * time.Minute

func NewCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(userID int) string {
	return fmt.Sprintf("phrases:user:%d", userID)
}

func (c *Cache) Get(ctx context.Context, userID int) ([]Phrase, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("phrase cache read failed", "err", err)
		}
		return nil, false
	}
	var out []Phrase
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("phrase cache decode failed", "err", err)
		return nil, false
	}
	return out, true
}

func (c *Cache) Set(ctx context.Context, userID int, list []Phrase) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(userID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("phrase cache write failed", "err", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, userID int) {
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		c.log.Warn("phrase cache invalidate failed", "err", err)
	}
}
