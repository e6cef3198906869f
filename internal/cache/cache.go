package cache

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

const (
	// DefaultTTL keeps repeated identical requests off the RPC endpoint.
	DefaultTTL = 60 * time.Second
	// DefaultSweepInterval is how often expired entries are purged in the
	// background; reads also purge lazily.
	DefaultSweepInterval = 30 * time.Second
)

// ResultCache is a TTL store for scan results, safe for concurrent use.
type ResultCache struct {
	store *gocache.Cache
}

// New builds a cache with the given TTL and sweep interval; zero values use
// the defaults.
func New(ttl, sweepInterval time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &ResultCache{store: gocache.New(ttl, sweepInterval)}
}

// Get returns a cached result by key.
func (c *ResultCache) Get(key string) (model.ScanResult, bool) {
	value, ok := c.store.Get(key)
	if !ok {
		return model.ScanResult{}, false
	}
	result, ok := value.(model.ScanResult)
	return result, ok
}

// Set stores a result under key with the default TTL.
func (c *ResultCache) Set(key string, result model.ScanResult) {
	c.store.Set(key, result, gocache.DefaultExpiration)
}

// Key builds the deterministic cache key for a request: chain identifier,
// factory set sorted lexicographically, and the block range. Two requests
// with the same factories in any order produce the same key.
func Key(chainName string, factories []string, fromBlock, toBlock uint64) string {
	normalized := make([]string, 0, len(factories))
	for _, factory := range factories {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(factory)))
	}
	sort.Strings(normalized)
	return fmt.Sprintf("%s|%s|%d-%d", strings.ToLower(chainName), strings.Join(normalized, ","), fromBlock, toBlock)
}
