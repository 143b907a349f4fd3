package usecase

import (
	"sync"
	"time"

	"github.com/secmon-lab/coachmem/pkg/domain/model"
)

type cachedHistory struct {
	history   *model.ClientHistoryContext
	expiresAt time.Time
}

// historyCache holds one immutable ClientHistoryContext per client. Entries
// are replaced wholesale, never updated in place.
type historyCache struct {
	cache sync.Map
	ttl   time.Duration
	now   func() time.Time
}

func newHistoryCache(ttl time.Duration, now func() time.Time) *historyCache {
	return &historyCache{
		ttl: ttl,
		now: now,
	}
}

func (c *historyCache) get(clientID string) (*model.ClientHistoryContext, bool) {
	val, ok := c.cache.Load(clientID)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedHistory)
	if !c.now().Before(cached.expiresAt) {
		// Only drop the entry we saw; a concurrent refresh may have replaced it
		c.cache.CompareAndDelete(clientID, val)
		return nil, false
	}

	return cached.history, true
}

func (c *historyCache) set(clientID string, history *model.ClientHistoryContext) {
	if c.ttl <= 0 {
		return
	}
	c.cache.Store(clientID, &cachedHistory{
		history:   history,
		expiresAt: c.now().Add(c.ttl),
	})
}

func (c *historyCache) clear() {
	c.cache.Clear()
}
