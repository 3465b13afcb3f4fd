package measure

import (
	"strconv"
	"sync"

	"github.com/platewise/cookalong/internal/domain"
)

// conversionCache is a thread-safe memo of conversion results. The key
// is "amount|from|to|ingredient" with units already normalized, so the
// same request spelled differently still hits. Conversions are pure
// math over static tables, which makes Clear the only invalidation the
// cache needs.
type conversionCache struct {
	mu      sync.RWMutex
	entries map[string]domain.MeasurementConversion
	limit   int
	hits    int64
	misses  int64
}

func newConversionCache(limit int) *conversionCache {
	return &conversionCache{
		entries: make(map[string]domain.MeasurementConversion),
		limit:   limit,
	}
}

// cacheKey builds the composite lookup key. Amounts use the shortest
// round-trip float encoding so 0.5 and 0.50 collide as they should.
func cacheKey(amount float64, from, to, ingredient string) string {
	return strconv.FormatFloat(amount, 'g', -1, 64) + "|" + from + "|" + to + "|" + ingredient
}

// get returns the cached conversion and true, or the zero value and false.
func (c *conversionCache) get(key string) (domain.MeasurementConversion, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()

	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	return v, ok
}

// put stores a conversion. At the size limit an arbitrary entry is
// evicted first; the cache is a memo, not a store, so which entry goes
// does not matter.
func (c *conversionCache) put(key string, v domain.MeasurementConversion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limit > 0 && len(c.entries) >= c.limit {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = v
}

// len returns the number of cached entries.
func (c *conversionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// stats returns hit and miss counts.
func (c *conversionCache) stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// clear empties the cache and resets the counters.
func (c *conversionCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]domain.MeasurementConversion)
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
}
