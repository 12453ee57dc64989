// Package cache holds recently read repository snapshots keyed by
// application and environment.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JaimeStill/promptrepo/internal/repository"
)

// Key identifies one cached snapshot.
type Key struct {
	App string
	Env string
}

// NewKey normalizes the application id so lookups ignore case.
func NewKey(app, env string) Key {
	return Key{App: strings.ToLower(app), Env: env}
}

// Entry is a cached snapshot and the time it was read from storage.
type Entry struct {
	Snapshot  *repository.Snapshot
	FetchedAt time.Time
}

// Cache is a size-bounded snapshot cache whose entries expire after a fixed TTL.
// It is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[Key, Entry]
	now func() time.Time
}

// New creates a cache holding at most size entries for ttl each.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[Key, Entry](size, nil, ttl),
		now: time.Now,
	}
}

// Get returns a copy of the cached entry for key.
func (c *Cache) Get(key Key) (Entry, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Put stores snap under key and returns the stored entry.
func (c *Cache) Put(key Key, snap *repository.Snapshot) Entry {
	e := Entry{Snapshot: snap, FetchedAt: c.now()}
	c.lru.Add(key, e.clone())
	return e
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key Key) {
	c.lru.Remove(key)
}

// InvalidateEnv drops every entry for env.
func (c *Cache) InvalidateEnv(env string) {
	for _, k := range c.lru.Keys() {
		if k.Env == env {
			c.lru.Remove(k)
		}
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.lru.Purge()
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func (e Entry) clone() Entry {
	if e.Snapshot == nil {
		return e
	}
	snap := *e.Snapshot
	snap.Document = e.Snapshot.Document.Clone()
	return Entry{Snapshot: &snap, FetchedAt: e.FetchedAt}
}
