// Package cache keeps recent catalog search results in Redis.
//
// Entries are never deleted on write. Each owner has a generation counter
// that is part of every key; bumping it after a write makes all of that
// owner's older entries unreachable, and they age out through their TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediashelf/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// SearchCache stores search results per owner.
//
// SearchKey must be called before the store is queried so that a write
// committed in between is never hidden behind the stored entry.
type SearchCache interface {
	SearchKey(ctx context.Context, ownerID string, mediaType models.MediaType, term string) (string, error)
	Get(ctx context.Context, key string) ([]*models.MediaItem, bool, error)
	Put(ctx context.Context, key string, items []*models.MediaItem) error
	Invalidate(ctx context.Context, ownerID string) error
}

type RedisCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisCache(rdb redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func generationKey(ownerID string) string {
	return "media:gen:" + ownerID
}

func (c *RedisCache) SearchKey(ctx context.Context, ownerID string, mediaType models.MediaType, term string) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey(ownerID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get generation: %w", err)
	}

	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(term))))
	return fmt.Sprintf("media:search:%s:%d:%s:%s", ownerID, gen, mediaType, hex.EncodeToString(sum[:8])), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]*models.MediaItem, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	items := make([]*models.MediaItem, 0)
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached search: %w", err)
	}
	return items, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, items []*models.MediaItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode search: %w", err)
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate moves the owner to a new generation.
func (c *RedisCache) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.rdb.Incr(ctx, generationKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	return nil
}

// Nop is a SearchCache that never stores anything.
type Nop struct{}

func (Nop) SearchKey(context.Context, string, models.MediaType, string) (string, error) {
	return "", nil
}

func (Nop) Get(context.Context, string) ([]*models.MediaItem, bool, error) { return nil, false, nil }

func (Nop) Put(context.Context, string, []*models.MediaItem) error { return nil }

func (Nop) Invalidate(context.Context, string) error { return nil }
