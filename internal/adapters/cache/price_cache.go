package cache

import (
	"fmt"
	"laundry/internal/domain"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

type RistrettoPriceCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	// mu orders Set against InvalidateService; versions counts invalidations per service.
	mu       sync.Mutex
	versions map[int64]uint64
}

// NewPriceCache creates a cache holding up to maxItems prices. Entries expire after ttl; zero means never.
func NewPriceCache(maxItems int64, ttl time.Duration) (*RistrettoPriceCache, error) {
	if maxItems <= 0 {
		maxItems = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create price cache failed: %w", err)
	}
	return &RistrettoPriceCache{cache: c, ttl: ttl, versions: make(map[int64]uint64)}, nil
}

func (c *RistrettoPriceCache) Get(serviceID int64, currency string) (domain.ServicePrice, bool) {
	if v, ok := c.cache.Get(toKey(serviceID, currency)); ok {
		p, ok := v.(domain.ServicePrice)
		return p, ok
	}
	return domain.ServicePrice{}, false
}

func (c *RistrettoPriceCache) Version(serviceID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[serviceID]
}

// Set stores price unless its service was invalidated after version was taken.
// It reports whether the price was handed to the cache.
func (c *RistrettoPriceCache) Set(price domain.ServicePrice, version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[price.ServiceID] != version {
		return false
	}
	return c.cache.SetWithTTL(toKey(price.ServiceID, price.CurrencyCode), price, 1, c.ttl)
}

// InvalidateService drops cached prices of serviceID in the given currencies and
// bumps the service version so in-flight loads are not cached.
func (c *RistrettoPriceCache) InvalidateService(serviceID int64, currencies []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[serviceID]++
	for _, code := range currencies {
		c.cache.Del(toKey(serviceID, code))
	}
}

func (c *RistrettoPriceCache) Close() { c.cache.Close() }

func toKey(serviceID int64, currency string) string {
	return strconv.FormatInt(serviceID, 10) + ":" + currency
}
