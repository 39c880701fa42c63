package hospital

import (
	"sync"
	"time"
)

// SafetyMargin is subtracted from a token's lifetime so a token that would
// expire mid-flight is never handed out.
const SafetyMargin = 5 * time.Minute

// TokenCache stores one bearer token per upstream base URL with expiry
// tracking. Implementations must be safe for concurrent use; this is the one
// piece of shared mutable state crossing request boundaries.
type TokenCache interface {
	// Get returns the cached token for baseURL if one exists and is not
	// inside the safety margin of its expiry.
	Get(baseURL string) (string, bool)
	// Put replaces the cached token for baseURL.
	Put(baseURL, token string, ttl time.Duration)
	// Invalidate drops the cached token for baseURL.
	Invalidate(baseURL string)
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// MemoryTokenCache is an in-memory TokenCache. Entries are replaced whole
// under the lock, never mutated in place, so readers can never observe a torn
// token/expiry pair. Nothing persists across restarts; the cache is a
// best-effort optimization, not a source of truth.
type MemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]cachedToken
	now     func() time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{
		entries: make(map[string]cachedToken),
		now:     time.Now,
	}
}

// NewMemoryTokenCacheWithClock builds a cache with an injected clock for tests.
func NewMemoryTokenCacheWithClock(now func() time.Time) *MemoryTokenCache {
	return &MemoryTokenCache{
		entries: make(map[string]cachedToken),
		now:     now,
	}
}

func (c *MemoryTokenCache) Get(baseURL string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[baseURL]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !c.now().Add(SafetyMargin).Before(entry.expiresAt) {
		return "", false
	}
	return entry.token, true
}

func (c *MemoryTokenCache) Put(baseURL, token string, ttl time.Duration) {
	entry := cachedToken{token: token, expiresAt: c.now().Add(ttl)}
	c.mu.Lock()
	c.entries[baseURL] = entry
	c.mu.Unlock()
}

func (c *MemoryTokenCache) Invalidate(baseURL string) {
	c.mu.Lock()
	delete(c.entries, baseURL)
	c.mu.Unlock()
}
