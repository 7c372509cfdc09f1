package vision

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores identification results keyed by the image hash.  Two
// implementations exist: a Redis-backed cache shared across server
// instances and an in-process fallback for single-instance deployments
// or when Redis is unavailable.
type Cache interface {
	Get(ctx context.Context, key string) (Identification, bool)
	Set(ctx context.Context, key string, id Identification)
}

// entryTTL is how long a cached identification stays fresh.
const entryTTL = 24 * time.Hour

// NewCache returns a Redis-backed cache when rdb is non-nil, otherwise
// an in-process one.
func NewCache(rdb *redis.Client) Cache {
	if rdb != nil {
		return &redisCache{rdb: rdb}
	}
	return newMemoryCache(512)
}

type redisCache struct {
	rdb *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) (Identification, bool) {
	bs, err := c.rdb.Get(ctx, "plantid:"+key).Bytes()
	if err != nil {
		return Identification{}, false
	}
	var id Identification
	if err := json.Unmarshal(bs, &id); err != nil {
		return Identification{}, false
	}
	return id, true
}

func (c *redisCache) Set(ctx context.Context, key string, id Identification) {
	bs, err := json.Marshal(id)
	if err != nil {
		return
	}
	_ = c.rdb.SetEx(ctx, "plantid:"+key, bs, entryTTL).Err()
}

// memoryCache keeps up to maxEntries results, evicting in insertion
// order when full.  Entries also go stale after entryTTL.
type memoryCache struct {
	mu         sync.Mutex
	maxEntries int
	order      []string
	entries    map[string]memoryEntry
}

type memoryEntry struct {
	id       Identification
	storedAt time.Time
}

func newMemoryCache(maxEntries int) *memoryCache {
	return &memoryCache{
		maxEntries: maxEntries,
		entries:    make(map[string]memoryEntry),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (Identification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Identification{}, false
	}
	if time.Since(e.storedAt) > entryTTL {
		delete(c.entries, key)
		return Identification{}, false
	}
	return e.id, true
}

func (c *memoryCache) Set(_ context.Context, key string, id Identification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		for len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = memoryEntry{id: id, storedAt: time.Now()}
}
