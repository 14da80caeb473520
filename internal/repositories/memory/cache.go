package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"hardware-request-system/internal/repositories"
)

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// Cache - замена Redis для запуска без внешних зависимостей.
type Cache struct {
	mu    sync.Mutex
	items map[string]cacheItem
	now   func() time.Time
}

var _ repositories.CacheRepositoryInterface = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{items: make(map[string]cacheItem), now: time.Now}
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := cacheItem{value: fmt.Sprint(value)}
	if expiration > 0 {
		item.expiresAt = c.now().Add(expiration)
	}
	c.items[key] = item
	return nil
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.live(key)
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return item.value, nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *Cache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, _ := c.live(key)
	n := int64(0)
	if item.value != "" {
		parsed, err := strconv.ParseInt(item.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("значение ключа %q не является числом", key)
		}
		n = parsed
	}
	n++
	item.value = strconv.FormatInt(n, 10)
	c.items[key] = item
	return n, nil
}

func (c *Cache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.live(key)
	if !ok {
		return false, nil
	}
	item.expiresAt = c.now().Add(expiration)
	c.items[key] = item
	return true, nil
}

// live возвращает элемент, если он не истёк; истёкшие удаляются.
func (c *Cache) live(key string) (cacheItem, bool) {
	item, ok := c.items[key]
	if !ok {
		return cacheItem{}, false
	}
	if !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return cacheItem{}, false
	}
	return item, true
}
