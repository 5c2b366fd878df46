// Package query wraps remote list fetching with key-based caching, staleness
// windows, and client-side pagination slicing.
package query

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/jortega/fuelwatch/internal/logging"
)

// EntryState is the lifecycle position of a cached entry.
type EntryState string

const (
	StateIdle    EntryState = "idle"
	StateLoading EntryState = "loading"
	StateFresh   EntryState = "fresh"
	StateStale   EntryState = "stale"
	StateError   EntryState = "error"
)

// fetchRetries is how many times a failed fetch is retried before the entry
// goes to StateError.
const fetchRetries = 2

// Key derives the cache key for a resource and its normalized filter set.
// params with empty values must already be dropped (url.Values built via
// api.StationFilters.Values are); Encode sorts keys, so the result is
// deterministic and filter sets differing only by absent values collide.
func Key(resource string, params url.Values) string {
	if len(params) == 0 {
		return resource
	}
	return resource + "?" + params.Encode()
}

// Event is delivered to subscribers on entry transitions.
type Event struct {
	Key   string
	State EntryState
	Err   error
}

// FetchFunc loads the backing collection for a key.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	payload    any
	hasPayload bool
	fetchedAt  time.Time
	state      EntryState
	err        error

	// seq tags in-flight requests in issue order; only the completion of
	// the newest issued request may be applied.
	seq uint64

	lastAccess  time.Time
	subscribers map[string]func(Event)
}

// Cache is a key-based read-through cache with staleness windows.
//
// A fresh entry is served with no network call. A stale entry is served
// immediately while exactly one background refetch runs. A missing or
// errored entry blocks on a fetch shared among concurrent callers. Failed
// fetches are retried before surfacing, and never clear previously cached
// data for the key.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	staleTime time.Duration
	gcTime    time.Duration
	retryWait time.Duration

	group singleflight.Group
	log   logging.Logger
	now   func() time.Time
}

func New(staleTime, gcTime time.Duration, log logging.Logger) *Cache {
	return &Cache{
		entries:   make(map[string]*entry),
		staleTime: staleTime,
		gcTime:    gcTime,
		retryWait: 250 * time.Millisecond,
		log:       log,
		now:       time.Now,
	}
}

func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{state: StateIdle, subscribers: make(map[string]func(Event))}
		c.entries[key] = e
	}
	return e
}

// Subscribe registers fn for transitions of key and returns a handle for
// Unsubscribe. An unsubscribed view simply stops receiving results; the
// underlying fetch, if any, is left to finish and land in the cache.
func (c *Cache) Subscribe(key string, fn func(Event)) string {
	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	e.subscribers[id] = fn
	e.lastAccess = c.now()
	return id
}

func (c *Cache) Unsubscribe(key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		delete(e.subscribers, id)
	}
}

func (c *Cache) notify(key string, ev Event) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	fns := make([]func(Event), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Get returns the collection cached under key, fetching it when needed.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	now := c.now()
	e.lastAccess = now

	if e.hasPayload {
		payload := e.payload
		if now.Sub(e.fetchedAt) <= c.staleTime {
			c.mu.Unlock()
			return payload, nil
		}

		// Serve the stale value immediately; refetch in the background
		// unless one is already on its way.
		refetch := e.state != StateLoading
		if refetch {
			e.state = StateStale
		}
		c.mu.Unlock()

		if refetch {
			c.log.Debug(ctx, "stale entry, background refetch", "key", key)
			bg := context.WithoutCancel(ctx)
			go func() {
				_, _ = c.fetch(bg, key, fetch)
			}()
		}
		return payload, nil
	}
	c.mu.Unlock()

	return c.fetch(ctx, key, fetch)
}

// Refresh forces a new fetch for key even if one is already in flight. The
// superseded request's completion is discarded on arrival.
func (c *Cache) Refresh(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.group.Forget(key)
	return c.fetch(ctx, key, fetch)
}

// fetch issues (or joins) the network call for key and applies the result in
// request-issue order: a completion superseded by a newer issue is dropped.
func (c *Cache) fetch(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.seq++
	seq := e.seq
	wasLoading := e.state == StateLoading
	e.state = StateLoading
	c.mu.Unlock()

	// Callers joining an already in-flight fetch must not re-announce it:
	// one network call, one loading event.
	if !wasLoading {
		c.notify(key, Event{Key: key, State: StateLoading})
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		var payload any
		backoff := retry.WithMaxRetries(fetchRetries, retry.NewConstant(c.retryWait))
		retryErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
			p, err := fetch(ctx)
			if err != nil {
				return retry.RetryableError(err)
			}
			payload = p
			return nil
		})
		return payload, retryErr
	})

	c.mu.Lock()
	if seq != e.seq {
		// A newer request for this key was issued while we were in flight;
		// last-request-wins by issue time, so this completion is discarded.
		stale := e.hasPayload
		payload := e.payload
		c.mu.Unlock()
		c.log.Debug(ctx, "discarding out-of-order completion", "key", key)
		if err == nil {
			return v, nil
		}
		if stale {
			return payload, nil
		}
		return nil, err
	}

	if err != nil {
		e.state = StateError
		e.err = err
		// Previously cached data for this key survives the failure.
		c.mu.Unlock()
		c.notify(key, Event{Key: key, State: StateError, Err: err})
		return nil, err
	}

	e.payload = v
	e.hasPayload = true
	e.fetchedAt = c.now()
	e.state = StateFresh
	e.err = nil
	c.mu.Unlock()

	c.notify(key, Event{Key: key, State: StateFresh})
	return v, nil
}

// Peek reports the entry's current state without triggering any fetch.
func (c *Cache) Peek(key string) EntryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return StateIdle
	}
	if e.hasPayload && e.state != StateLoading && e.state != StateError {
		if c.now().Sub(e.fetchedAt) > c.staleTime {
			return StateStale
		}
		return StateFresh
	}
	return e.state
}

// Sweep evicts entries that have had no subscribers and no activity for
// longer than the gc window.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if len(e.subscribers) == 0 && now.Sub(e.lastAccess) > c.gcTime {
			delete(c.entries, key)
		}
	}
}

// StartGC sweeps on the given interval until ctx is done.
func (c *Cache) StartGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
