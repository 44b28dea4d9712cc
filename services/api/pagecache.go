package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viccon/sturdyc"
)

const (
	cacheTypeSubjects = "subjects"
	cacheTypeSessions = "sessions"

	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100

	defaultCacheCapacity = 10_000
	defaultCacheTTL      = 5 * time.Minute
	cacheShards          = 64
	cacheEvictionPercent = 10

	// Invalidation is conservative: the exact pages touched by a mutation are
	// unknown without recomputation, so every plausible (page, per_page)
	// combination for the owner is cleared. Entries beyond this enumeration
	// fall back to the TTL.
	invalidatePageSpan = 10
)

var invalidatePerPages = [...]int{10, 20, 50, 100}

// pageCache stores serialized list-result pages keyed by owner, resource type,
// and paging window. It is a pure optimization: a nil pageCache disables
// caching and every read falls through to the store.
type pageCache struct {
	client *sturdyc.Client[[]byte]
}

func newPageCache(capacity int, ttl time.Duration) *pageCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &pageCache{
		client: sturdyc.New[[]byte](capacity, cacheShards, ttl, cacheEvictionPercent),
	}
}

func pageKey(userID uuid.UUID, resource string, page, perPage int) string {
	return fmt.Sprintf("user:%s:%s:page:%d:per_page:%d", userID, resource, page, perPage)
}

// clampPaging normalizes client paging input. per_page is clamped server-side
// to bound cache cardinality and response size.
func clampPaging(page, perPage int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func (c *pageCache) get(userID uuid.UUID, resource string, page, perPage int) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	payload, ok := c.client.Get(pageKey(userID, resource, page, perPage))
	if ok {
		cacheHits.WithLabelValues(resource).Inc()
	} else {
		cacheMisses.WithLabelValues(resource).Inc()
	}
	return payload, ok
}

func (c *pageCache) set(userID uuid.UUID, resource string, page, perPage int, payload []byte) {
	if c == nil {
		return
	}
	c.client.Set(pageKey(userID, resource, page, perPage), payload)
}

// invalidate clears every cached page of the given resource type for the
// user. Called synchronously by mutating handlers after commit, before the
// response is written.
func (c *pageCache) invalidate(userID uuid.UUID, resource string) {
	if c == nil {
		return
	}
	for page := 1; page <= invalidatePageSpan; page++ {
		for _, perPage := range invalidatePerPages {
			c.client.Delete(pageKey(userID, resource, page, perPage))
		}
	}
	cacheInvalidations.WithLabelValues(resource).Inc()
}
