package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
)

// CatalogCache — кэш каталога в памяти процесса. Используется, когда Redis не настроен.
type CatalogCache struct {
	mu        sync.RWMutex
	items     []usecase.CatalogItem
	gen       int64
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewCatalogCache создаёт кэш; ttl <= 0 отключает кэширование.
func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{ttl: ttl, now: time.Now}
}

func (c *CatalogCache) GetCatalog(_ context.Context) ([]usecase.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.items == nil || !c.now().Before(c.expiresAt) {
		return nil, e.ErrCacheMiss
	}

	items := make([]usecase.CatalogItem, len(c.items))
	copy(items, c.items)
	return items, nil
}

func (c *CatalogCache) Generation(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gen, nil
}

// SetCatalog записывает список, только если с момента чтения gen кэш не инвалидировали.
func (c *CatalogCache) SetCatalog(_ context.Context, gen int64, items []usecase.CatalogItem) error {
	if c.ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return nil
	}

	c.items = make([]usecase.CatalogItem, len(items))
	copy(c.items, items)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

func (c *CatalogCache) InvalidateCatalog(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.gen++
	return nil
}

var _ usecase.CatalogCache = (*CatalogCache)(nil)
