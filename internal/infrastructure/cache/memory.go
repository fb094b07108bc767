package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

// cacheItem represents a single cached product with expiration
type cacheItem struct {
	product    *domain.Product
	expiration time.Time
}

// ProductMemoryCache is a thread-safe in-memory product cache with TTL
// support. It fronts the persisted product store to serve hot barcodes
// without a database round trip.
type ProductMemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

// NewProductMemoryCache creates a new in-memory product cache.
func NewProductMemoryCache() *ProductMemoryCache {
	c := &ProductMemoryCache{
		data: make(map[string]cacheItem),
	}

	// Cleanup goroutine removes expired entries every 10 minutes
	go c.cleanupExpired()

	return c
}

// Get retrieves a product from the cache by barcode.
func (c *ProductMemoryCache) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[barcode]
	if !exists {
		return nil, domain.ErrCacheMiss
	}
	if time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}

	return item.product, nil
}

// Set stores a product with the given TTL, overwriting any prior entry for
// the same barcode.
func (c *ProductMemoryCache) Set(ctx context.Context, product *domain.Product, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[product.Barcode] = cacheItem{
		product:    product,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a product from the cache.
func (c *ProductMemoryCache) Delete(ctx context.Context, barcode string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, barcode)
	return nil
}

// cleanupExpired removes expired entries from the cache periodically.
func (c *ProductMemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for barcode, item := range c.data {
			if now.After(item.expiration) {
				delete(c.data, barcode)
			}
		}
		c.mutex.Unlock()
	}
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *ProductMemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache.
func (c *ProductMemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
