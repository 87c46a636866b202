package timeseries

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

// latestKeyPrefix keys the hot path: one entry per sensor, overwritten
// on every append. The TTL lets dead sensors age out of the cache.
const (
	latestKeyPrefix = "reading:last:"
	latestTTL       = 24 * time.Hour
)

// LatestCache holds the most recent reading per sensor in Redis so the
// read surface does not hit the time-series store for dashboards.
type LatestCache struct {
	rdb *redis.Client
}

// NewLatestCache connects to Redis and verifies the connection.
func NewLatestCache(ctx context.Context, addr string) (*LatestCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("timeseries: redis unreachable: %w", err)
	}
	return &LatestCache{rdb: rdb}, nil
}

func (c *LatestCache) Close() error {
	return c.rdb.Close()
}

// Ping reports whether Redis still answers.
func (c *LatestCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetLatest overwrites the hot entry for the reading's sensor. Cache
// errors are reported but non-fatal to ingestion: the reading is
// already durable in the store.
func (c *LatestCache) SetLatest(ctx context.Context, r messages.Reading) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("timeseries: marshal latest: %w", err)
	}
	key := fmt.Sprintf("%s%d", latestKeyPrefix, r.SensorID)
	if err := c.rdb.Set(ctx, key, b, latestTTL).Err(); err != nil {
		return fmt.Errorf("timeseries: cache set: %w", err)
	}
	return nil
}

// AllLatest scans the hot entries of every sensor currently alive.
func (c *LatestCache) AllLatest(ctx context.Context) ([]messages.Reading, error) {
	var out []messages.Reading

	iter := c.rdb.Scan(ctx, 0, latestKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := c.rdb.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue // expired between scan and get
			}
			return nil, fmt.Errorf("timeseries: cache get %s: %w", iter.Val(), err)
		}
		var r messages.Reading
		if err := json.Unmarshal(raw, &r); err != nil {
			continue // stale entry with an old shape; skip it
		}
		out = append(out, r)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("timeseries: cache scan: %w", err)
	}
	return out, nil
}
