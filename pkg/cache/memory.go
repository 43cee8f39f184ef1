// Package cache provides the caches used by the repository client.
//
// # Overview
//
// Two layers live here:
//
//   - [Memory]: an in-process key→value cache with per-entry TTLs and
//     single-flight deduplication. The client uses it to memoize the
//     repository descriptor so that N concurrent callers trigger at most
//     one bootstrap fetch.
//   - [Store]: a byte-level cache for raw HTTP responses, with file,
//     Redis and null backends. It is passed explicitly to the transport
//     layer; there is no hidden process-wide response cache.
//
// # TTL semantics
//
// A TTL of 0 means the entry never expires. This is used for entries whose
// freshness is controlled externally (for example by an upstream cache
// directive). An expired entry is not discarded immediately: while a refresh
// for the same key is in flight, [Memory.Get] keeps serving the stale value
// so readers never hit the gap between expiry and re-population.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Producer computes a value for a cache key, returning the value and the
// TTL it should be stored with. A TTL of 0 stores the value forever.
type Producer func(ctx context.Context) (value any, ttl time.Duration, err error)

// Memory is an in-process TTL cache with single-flight refresh.
//
// All methods are safe for concurrent use. For any key, at most one
// Producer invocation is outstanding at a time: concurrent GetOrSet calls
// for the same key share the in-flight result instead of issuing duplicate
// fetches. A failed Producer never populates the cache, so the next call
// retries.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]entry
	inflight map[string]bool
	flight   singleflight.Group

	now func() time.Time // test hook, defaults to time.Now
}

type entry struct {
	value     any
	expiresAt time.Time // zero = never expires
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string]entry),
		inflight: make(map[string]bool),
		now:      time.Now,
	}
}

// Get returns the cached value for key.
//
// A value is returned when it is present and either unexpired or currently
// being refreshed by a GetOrSet call; serving the stale value during a
// refresh avoids a thundering herd between expiry and re-population.
func (c *Memory) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(e) && !c.inflight[key] {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the given TTL. A TTL of 0 stores the
// value without expiry.
func (c *Memory) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.newEntry(value, ttl)
}

// Delete removes key from the cache. An in-flight refresh for key is not
// interrupted; its result will still be stored.
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// GetOrSet returns the cached value for key, or runs producer to compute
// and store it.
//
// If a usable value exists (present and unexpired, or present with a
// refresh already in flight) it is returned immediately and producer is
// not invoked. Otherwise producer runs; callers that arrive while it is
// running block and receive the same result. The producer's error is
// returned to every waiting caller and nothing is stored.
func (c *Memory) GetOrSet(ctx context.Context, key string, producer Producer) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && (!c.expired(e) || c.inflight[key]) {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.inflight[key] = true
	c.mu.Unlock()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		value, ttl, err := producer(ctx)

		c.mu.Lock()
		delete(c.inflight, key)
		if err == nil {
			c.entries[key] = c.newEntry(value, ttl)
		}
		c.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return value, nil
	})
	return v, err
}

func (c *Memory) newEntry(value any, ttl time.Duration) entry {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	return e
}

// expired reports whether e has passed its TTL. Entries without an
// expiry time never expire. Callers must hold c.mu.
func (c *Memory) expired(e entry) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(c.now())
}
