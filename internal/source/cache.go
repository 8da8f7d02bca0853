package source

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tereborace.com/taboleiro/internal/metrics"
	"tereborace.com/taboleiro/internal/table"
)

// LoadFunc fetches a fresh table.
type LoadFunc func(ctx context.Context) (*table.Table, error)

type entry struct {
	t       *table.Table
	fetched time.Time
}

// Cache is a read-through cache of tables keyed by source name. Entries
// expire after a fixed TTL; failed loads are never stored. Concurrent misses
// for the same key share one load.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	gen     uint64
	group   singleflight.Group
}

// NewCache creates a cache. now defaults to time.Now; a TTL <= 0 disables
// storage.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, entries: make(map[string]entry)}
}

// Get returns the stored table for key while fresh, else calls load.
func (c *Cache) Get(ctx context.Context, key string, load LoadFunc) (*table.Table, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	gen := c.gen
	if ok && c.now().Sub(e.fetched) < c.ttl {
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return e.t, nil
	}
	c.mu.Unlock()
	metrics.CacheLookups.WithLabelValues(metrics.ResultMiss).Inc()

	// a xeración na chave evita unirse a cargas previas a un Invalidate.
	// A carga compartida non depende do contexto de quen chegou primeiro;
	// cada chamador deixa de esperar cando se cancela o seu.
	ch := c.group.DoChan(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		t, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.ttl > 0 && c.gen == gen {
			c.entries[key] = entry{t: t, fetched: c.now()}
		}
		c.mu.Unlock()
		return t, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*table.Table), nil
	}
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.gen++
	c.mu.Unlock()
	metrics.CacheInvalidations.Inc()
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
