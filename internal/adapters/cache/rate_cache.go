package cache

import (
	"fmt"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// RistrettoRateCache memoizes resolved conversion lookups between
// refreshes. Entries are keyed by the directional pair key and dropped
// wholesale once a refresh lands new data.
type RistrettoRateCache struct {
	cache *ristretto.Cache
}

func NewRateCache(maxItems int64) (*RistrettoRateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate cache failed: %w", err)
	}
	return &RistrettoRateCache{cache: c}, nil
}

func (c *RistrettoRateCache) Get(pairKey string) (domain.RateInfo, bool) {
	if v, ok := c.cache.Get(pairKey); ok {
		info, ok := v.(domain.RateInfo)
		return info, ok
	}
	return domain.RateInfo{}, false
}

func (c *RistrettoRateCache) Set(pairKey string, info domain.RateInfo) {
	c.cache.Set(pairKey, info, 1)
}

func (c *RistrettoRateCache) Clear() { c.cache.Clear() }

func (c *RistrettoRateCache) Close() { c.cache.Close() }
