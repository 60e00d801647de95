package tools

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/greentrip/carbonmcp/pkg/monitoring"
)

const (
	// Default cache size for distance lookups
	defaultLookupCacheSize = 256

	// Cache type label used for metrics
	lookupCacheType = "route_lookup"
)

// lookupCache memoizes catalog distance lookups keyed by the normalized
// query pair. Matching semantics stay in pkg/routes; the cache only stores
// the already-resolved numeric result, so a hit and a miss always agree.
type lookupCache struct {
	cache *lru.Cache[string, float64]
}

func newLookupCache(size int) (*lookupCache, error) {
	c, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &lookupCache{cache: c}, nil
}

// key builds a direction-insensitive key from the two place labels.
func (l *lookupCache) key(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (l *lookupCache) get(a, b string) (float64, bool) {
	v, ok := l.cache.Get(l.key(a, b))
	if ok {
		monitoring.RecordCacheHit(lookupCacheType)
	} else {
		monitoring.RecordCacheMiss(lookupCacheType)
	}
	return v, ok
}

func (l *lookupCache) add(a, b string, distanceKm float64) {
	l.cache.Add(l.key(a, b), distanceKm)
	monitoring.UpdateCacheSize(lookupCacheType, l.cache.Len())
}
