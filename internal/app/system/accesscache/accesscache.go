// Package accesscache keeps recently used project restriction records in
// memory so the per-request access gate does not hit Mongo every time.
// Entries expire after a TTL and are invalidated explicitly on writes.
package accesscache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/workhub/internal/domain/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workhub_access_cache_hits_total",
		Help: "Restriction lookups served from the in-memory cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workhub_access_cache_misses_total",
		Help: "Restriction lookups that went to the database.",
	})
)

// Loader fetches the restriction records for one user in one project.
type Loader func(ctx context.Context, projectID, userID primitive.ObjectID) ([]models.ProjectAccess, error)

// Cache is an LRU of restriction records keyed by project and user.
type Cache struct {
	lru  *expirable.LRU[string, []models.ProjectAccess]
	load Loader

	// gen is bumped by every invalidation. A load only fills the cache if
	// no invalidation happened while it ran, so a list read before a write
	// cannot be stored after that write's Invalidate.
	mu  sync.Mutex
	gen uint64
}

// New creates a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration, load Loader) *Cache {
	return &Cache{
		lru:  expirable.NewLRU[string, []models.ProjectAccess](size, nil, ttl),
		load: load,
	}
}

func key(projectID, userID primitive.ObjectID) string {
	return projectID.Hex() + ":" + userID.Hex()
}

// Records returns the user's restriction records for the project, loading
// and caching them on a miss. Load errors are not cached.
func (c *Cache) Records(ctx context.Context, projectID, userID primitive.ObjectID) ([]models.ProjectAccess, error) {
	k := key(projectID, userID)
	if recs, ok := c.lru.Get(k); ok {
		cacheHitsTotal.Inc()
		return recs, nil
	}
	cacheMissesTotal.Inc()

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	recs, err := c.load(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.lru.Add(k, recs)
	}
	c.mu.Unlock()
	return recs, nil
}

// Invalidate drops the entry for one user in one project.
func (c *Cache) Invalidate(projectID, userID primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Remove(key(projectID, userID))
}

// InvalidateProject drops every entry for the project.
func (c *Cache) InvalidateProject(projectID primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	prefix := projectID.Hex() + ":"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
