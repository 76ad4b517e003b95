package di

import (
	"context"
	"sync"
	"time"

	"mirage-engine/application/ports"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
)

// characterCacheTTL bounds staleness for read-through character loads
const characterCacheTTL = 30 * time.Second

// InMemoryCache provides a simple TTL cache
type InMemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	cache := &InMemoryCache{
		items: make(map[string]cacheItem),
	}
	go cache.cleanupExpired()
	return cache
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores a value in cache with a TTL
func (c *InMemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// cleanupExpired periodically removes expired items
func (c *InMemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, item := range c.items {
			if now.After(item.expiresAt) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// CachingCharacterRepository is a read-through decorator over a
// character repository. GetByID hits the cache first; writes and
// deletes invalidate. List queries always pass through.
type CachingCharacterRepository struct {
	inner ports.CharacterRepository
	cache *InMemoryCache
}

// NewCachingCharacterRepository wraps a character repository with a TTL cache
func NewCachingCharacterRepository(inner ports.CharacterRepository, cache *InMemoryCache) ports.CharacterRepository {
	return &CachingCharacterRepository{inner: inner, cache: cache}
}

func (r *CachingCharacterRepository) Save(ctx context.Context, character *entities.Character) error {
	if err := r.inner.Save(ctx, character); err != nil {
		return err
	}
	r.cache.Delete(character.ID().String())
	return nil
}

func (r *CachingCharacterRepository) GetByID(ctx context.Context, id valueobjects.CharacterID) (*entities.Character, error) {
	if cached, ok := r.cache.Get(id.String()); ok {
		if character, ok := cached.(*entities.Character); ok {
			return character, nil
		}
	}
	character, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(id.String(), character, characterCacheTTL)
	return character, nil
}

func (r *CachingCharacterRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Character, error) {
	return r.inner.GetByOwnerID(ctx, ownerID)
}

func (r *CachingCharacterRepository) GetByRegimeID(ctx context.Context, regimeID valueobjects.RegimeID) ([]*entities.Character, error) {
	return r.inner.GetByRegimeID(ctx, regimeID)
}

func (r *CachingCharacterRepository) Delete(ctx context.Context, id valueobjects.CharacterID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Delete(id.String())
	return nil
}
