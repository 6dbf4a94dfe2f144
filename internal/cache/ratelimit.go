// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateKeyPrefix is the Valkey key prefix for rate limit windows.
const rateKeyPrefix = "ratelimit:"

// RateCounter counts requests per key in fixed windows stored in Valkey.
// The first hit of a window sets its expiry.
type RateCounter struct {
	client *redis.Client
}

// NewRateCounter creates a RateCounter backed by client.
func NewRateCounter(client *redis.Client) *RateCounter {
	return &RateCounter{client: client}
}

// Hit increments key's counter and returns the count and the time until
// the window expires.
func (c *RateCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := rateKeyPrefix + key

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate counter %s: %w", key, err)
	}

	reset := ttl.Val()
	if reset < 0 {
		reset = window
	}
	return incr.Val(), reset, nil
}
