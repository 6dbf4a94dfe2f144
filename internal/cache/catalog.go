// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go caches public catalog responses (category list, course
// listings, course detail) as JSON in Valkey. Any write to a course,
// lesson or category clears the whole catalog, since a single change can
// affect many listings.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached catalog entries.
	catalogKeyPrefix = "catalog:"

	// DefaultCatalogTTL is how long a catalog response stays cached.
	DefaultCatalogTTL = 5 * time.Minute
)

// Catalog is a JSON cache for public catalog reads. A nil *Catalog is a
// valid cache that never hits.
type Catalog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalog creates a catalog cache backed by the given Valkey client.
func NewCatalog(client *redis.Client, ttl time.Duration) *Catalog {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &Catalog{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dst. It reports false on a
// miss or any error.
func (c *Catalog) Get(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	val, err := c.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("catalog cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("catalog cache hit", "key", key)
	return true
}

// Set stores v as JSON under key with the configured TTL.
func (c *Catalog) Set(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("catalog cache encode error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, catalogKeyPrefix+key, data, c.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every catalog entry by scanning for the prefix.
func (c *Catalog) InvalidateAll(ctx context.Context) {
	if c == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, catalogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("catalog cache cleared", "deleted", deleted)
	}
}

// CategoriesKey returns the cache key for the category list.
func CategoriesKey() string {
	return "categories"
}

// CoursesKey returns the cache key for a course listing query. Query
// parameters are encoded in sorted order so equivalent queries share a key.
func CoursesKey(q url.Values) string {
	return "courses?" + q.Encode()
}

// CourseKey returns the cache key for a course detail by slug or ID.
func CourseKey(ref string) string {
	return "course:" + ref
}
