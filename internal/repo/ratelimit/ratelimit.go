package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter backed by Redis. On Redis errors it
// fails open so an unavailable cache never blocks bookings.
type Limiter struct {
	rdb      *redis.Client
	requests int
	window   time.Duration
}

func New(rdb *redis.Client, requests int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, requests: requests, window: window}
}

func (l *Limiter) Allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// Hash the key for privacy; bucket by window start.
	hasher := sha256.New()
	hasher.Write([]byte(key))
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	rlKey := fmt.Sprintf("rl:%x:%d", hasher.Sum(nil), bucket)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, rlKey)
	pipe.Expire(ctx, rlKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true
	}

	return incr.Val() <= int64(l.requests)
}
