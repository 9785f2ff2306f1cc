// Package cache keeps hot dashboard numbers in Redis so repeated stats
// requests skip the database. The cache is optional: a nil *Stats is safe
// to call and behaves as a permanent miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"larrosacamiones.com/internal/vehicles"
)

const (
	statsKey = "larrosa:vehicles:stats"
	statsTTL = 30 * time.Second
)

// ErrMiss reports that the key is absent or the cache is disabled.
var ErrMiss = errors.New("cache: miss")

// Stats caches vehicle catalog counters.
type Stats struct {
	rdb *redis.Client
}

// NewStats connects to Redis using the given URL. An empty URL disables
// caching and returns nil.
func NewStats(url string) (*Stats, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Stats{rdb: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity at startup.
func (c *Stats) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Get returns cached stats or ErrMiss.
func (c *Stats) Get(ctx context.Context) (vehicles.Stats, error) {
	if c == nil {
		return vehicles.Stats{}, ErrMiss
	}
	raw, err := c.rdb.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return vehicles.Stats{}, ErrMiss
	}
	if err != nil {
		return vehicles.Stats{}, err
	}
	var st vehicles.Stats
	if err := json.Unmarshal(raw, &st); err != nil {
		return vehicles.Stats{}, ErrMiss
	}
	return st, nil
}

// Set stores stats with a short TTL.
func (c *Stats) Set(ctx context.Context, st vehicles.Stats) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsKey, raw, statsTTL).Err()
}

// Invalidate drops the cached stats after catalog writes.
func (c *Stats) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, statsKey).Err()
}

// Close releases the underlying connection pool.
func (c *Stats) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
