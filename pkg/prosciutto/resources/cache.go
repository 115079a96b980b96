package resources

import "slices"

const defaultMaxCacheSize = 32

// Cache is a small LRU keyed by string. It is not safe for concurrent use;
// SVGProvider guards its cache with a mutex.
type Cache[V any] struct {
	values  map[string]V
	order   []string // least recently used first
	maxSize int
	onEvict func(key string, value V)
}

// NewCache creates a cache holding up to maxSize values. onEvict, if set, is
// called for every value pushed out or purged.
func NewCache[V any](maxSize int, onEvict func(string, V)) *Cache[V] {
	if maxSize <= 0 {
		maxSize = defaultMaxCacheSize
	}
	return &Cache[V]{
		values:  make(map[string]V),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		onEvict: onEvict,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.values[key]
	if ok {
		c.moveToEnd(key)
	}
	return v, ok
}

// Set stores value, evicting the least recently used entry when full.
func (c *Cache[V]) Set(key string, value V) {
	if _, exists := c.values[key]; exists {
		c.values[key] = value
		c.moveToEnd(key)
		return
	}

	if len(c.order) >= c.maxSize {
		c.evictOldest()
	}

	c.values[key] = value
	c.order = append(c.order, key)
}

// Remove drops key without calling onEvict.
func (c *Cache[V]) Remove(key string) {
	if _, exists := c.values[key]; !exists {
		return
	}
	delete(c.values, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}

// Len returns the number of cached values.
func (c *Cache[V]) Len() int {
	return len(c.order)
}

// Purge drops every value.
func (c *Cache[V]) Purge() {
	for _, key := range c.order {
		if c.onEvict != nil {
			c.onEvict(key, c.values[key])
		}
	}
	c.values = make(map[string]V)
	c.order = c.order[:0]
}

func (c *Cache[V]) moveToEnd(key string) {
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = append(slices.Delete(c.order, i, i+1), key)
	}
}

func (c *Cache[V]) evictOldest() {
	if len(c.order) == 0 {
		return
	}

	oldest := c.order[0]
	c.order = c.order[1:]

	if v, exists := c.values[oldest]; exists {
		delete(c.values, oldest)
		if c.onEvict != nil {
			c.onEvict(oldest, v)
		}
	}
}
