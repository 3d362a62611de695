// README: Redis-backed reverse-geocode cache wrapping another Geocoder.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheTTL keeps place names around long enough that a stationary dashboard
// never re-resolves the same coordinate.
const cacheTTL = 24 * time.Hour

// CachedGeocoder caches Reverse lookups in redis, keyed by coordinates
// rounded to ~100m. Search is passed through uncached.
type CachedGeocoder struct {
	next  Geocoder
	redis *redis.Client
}

func NewCachedGeocoder(next Geocoder, rdb *redis.Client) *CachedGeocoder {
	return &CachedGeocoder{next: next, redis: rdb}
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:rev:%.3f:%.3f", lat, lng)
}

func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	key := cacheKey(lat, lng)
	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var p Place
		if json.Unmarshal(raw, &p) == nil && p.Name != "" {
			return p, nil
		}
	}

	p, err := c.next.Reverse(ctx, lat, lng)
	if err != nil {
		return Place{}, err
	}
	if raw, err := json.Marshal(p); err == nil {
		// Cache write failures are ignored; the lookup already succeeded.
		c.redis.Set(ctx, key, raw, cacheTTL)
	}
	return p, nil
}

func (c *CachedGeocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	return c.next.Search(ctx, query, limit)
}
