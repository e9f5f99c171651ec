package city

import (
	"context"
	"slices"
	"strings"
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	"github.com/patrickmn/go-cache"
)

const DefaultGeocodeTTL = 6 * time.Hour

// CachingGeocoder remembers successful lookups process-wide, keyed by the
// normalized query. Failures are never cached.
type CachingGeocoder struct {
	next  contractx.Geocoder
	cache *cache.Cache
}

var _ contractx.Geocoder = (*CachingGeocoder)(nil)

func NewCachingGeocoder(next contractx.Geocoder, ttl time.Duration) *CachingGeocoder {
	if ttl <= 0 {
		ttl = DefaultGeocodeTTL
	}
	return &CachingGeocoder{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachingGeocoder) Geocode(ctx context.Context, query string) ([]contractx.Place, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if v, ok := c.cache.Get(key); ok {
		if places, ok := v.([]contractx.Place); ok {
			return slices.Clone(places), nil
		}
	}

	places, err := c.next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, slices.Clone(places), cache.DefaultExpiration)
	return places, nil
}
