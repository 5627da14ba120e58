// Package cache keeps the last known-good child collections of remote
// aggregates so reads keep working while the backend does not.
//
// The cache lives for the process only. It is written through on every
// successful fetch and on every local mutation, and it is read when the
// remote call fails or answers with an empty collection.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/core/metrics"
)

// ListOp fetches an owner's whole collection.
type ListOp[T any] func(ctx context.Context) domain.Result[[]T]

// WriteOp creates or updates one item remotely and returns the server id.
type WriteOp[ID comparable] func(ctx context.Context) domain.Result[ID]

// AckOp is a remote mutation whose only outcome is success or failure.
type AckOp func(ctx context.Context) domain.Result[bool]

// Identity tells the cache how to read and assign item ids.
type Identity[ID comparable, T any] struct {
	ID     func(T) ID
	WithID func(T, ID) T
	// TempID mints an id for an item the server never acknowledged.
	TempID func() ID
}

// TimestampID is the temporary id used for int64-keyed items: the current
// time in Unix milliseconds.
func TimestampID() int64 {
	return time.Now().UnixMilli()
}

type ownerEntry[T any] struct {
	mu    sync.Mutex
	items []T
}

// Cache is an owner-keyed fallback cache. Operations on one owner are
// linearizable; the per-owner lock is held across the remote call and the
// cache update. Different owners never wait on each other.
type Cache[K comparable, ID comparable, T any] struct {
	name     string
	identity Identity[ID, T]
	log      *slog.Logger

	mu     sync.Mutex
	owners map[K]*ownerEntry[T]
}

// New creates an empty cache. name labels logs and metrics.
func New[K comparable, ID comparable, T any](name string, identity Identity[ID, T]) *Cache[K, ID, T] {
	return &Cache[K, ID, T]{
		name:     name,
		identity: identity,
		log:      slog.Default().With("component", "cache", "cache", name),
		owners:   make(map[K]*ownerEntry[T]),
	}
}

// entry returns the owner's entry, creating it on first use. Entries are
// never removed from the map while the process runs, so a goroutine blocked
// on an entry's lock never ends up holding an orphan.
func (c *Cache[K, ID, T]) entry(owner K) *ownerEntry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.owners[owner]
	if !ok {
		e = &ownerEntry[T]{}
		c.owners[owner] = e
	}
	return e
}

// Fetch refreshes the owner's collection from list.
//
// A non-empty success replaces the cached collection. An empty success
// never overwrites known data, and a failure falls back to it. Absent data
// is an empty slice, never an error. If ctx is cancelled while list is in
// flight the result is not applied.
func (c *Cache[K, ID, T]) Fetch(ctx context.Context, owner K, list ListOp[T]) []T {
	e := c.entry(owner)
	e.mu.Lock()
	defer e.mu.Unlock()

	res := list(ctx)

	switch {
	case ctx.Err() != nil:
		metrics.CacheFallbacksTotal.WithLabelValues(c.name, "cancelled").Inc()
	case res.IsOk() && len(res.Value()) > 0:
		e.items = clone(res.Value())
		return clone(e.items)
	case res.IsOk():
		metrics.CacheFallbacksTotal.WithLabelValues(c.name, "empty").Inc()
	default:
		metrics.CacheFallbacksTotal.WithLabelValues(c.name, domain.ErrorKind(res.Err())).Inc()
		c.log.Warn("remote fetch failed, serving cached data",
			"owner", owner, "cached", len(e.items), "error", res.Err())
	}
	return clone(e.items)
}

// Upsert writes item remotely, then records it locally under the server's
// id, or under a temporary id when the write failed. The local copy
// replaces the entry with the same secondary key, or is appended.
//
// The remote result is returned alongside the stored item so callers can
// tell a committed write from a local-only one.
//
// A dispatched write is not cancellable: it runs detached from ctx's
// cancellation and always updates the cache.
func (c *Cache[K, ID, T]) Upsert(
	ctx context.Context,
	owner K,
	secondaryKey func(T) string,
	item T,
	write WriteOp[ID],
) (T, domain.Result[ID]) {
	ctx = context.WithoutCancel(ctx)

	e := c.entry(owner)
	e.mu.Lock()
	defer e.mu.Unlock()

	res := write(ctx)

	var stored T
	if res.IsOk() && !res.IsNoContent() {
		stored = c.identity.WithID(item, res.Value())
		metrics.CacheWritesTotal.WithLabelValues(c.name, "upsert", "ok").Inc()
	} else {
		stored = c.identity.WithID(item, c.identity.TempID())
		outcome := "failed"
		if res.IsOk() {
			outcome = "no_id"
		}
		metrics.CacheWritesTotal.WithLabelValues(c.name, "upsert", outcome).Inc()
		if !res.IsOk() {
			c.log.Warn("remote write failed, keeping local copy",
				"owner", owner, "key", secondaryKey(item), "error", res.Err())
		}
	}

	key := secondaryKey(stored)
	replaced := false
	for i := range e.items {
		if secondaryKey(e.items[i]) == key {
			e.items[i] = stored
			replaced = true
			break
		}
	}
	if !replaced {
		e.items = append(e.items, stored)
	}
	return stored, res
}

// Remove deletes id remotely and, whatever the remote outcome, locally.
func (c *Cache[K, ID, T]) Remove(ctx context.Context, owner K, id ID, del AckOp) domain.Result[bool] {
	ctx = context.WithoutCancel(ctx)

	e := c.entry(owner)
	e.mu.Lock()
	defer e.mu.Unlock()

	res := del(ctx)
	c.recordWrite("remove", owner, res)

	kept := e.items[:0]
	for _, it := range e.items {
		if c.identity.ID(it) != id {
			kept = append(kept, it)
		}
	}
	clear(e.items[len(kept):])
	e.items = kept
	return res
}

// Clear empties the owner remotely and, whatever the remote outcome, drops
// the owner's cached collection.
func (c *Cache[K, ID, T]) Clear(ctx context.Context, owner K, clearOp AckOp) domain.Result[bool] {
	ctx = context.WithoutCancel(ctx)

	e := c.entry(owner)
	e.mu.Lock()
	defer e.mu.Unlock()

	res := clearOp(ctx)
	c.recordWrite("clear", owner, res)

	e.items = nil
	return res
}

// Snapshot returns a copy of the owner's cached collection.
func (c *Cache[K, ID, T]) Snapshot(owner K) []T {
	e := c.entry(owner)
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.items)
}

// Reset drops every owner. Meant for tests and logout.
func (c *Cache[K, ID, T]) Reset() {
	for _, e := range c.entries() {
		e.mu.Lock()
		e.items = nil
		e.mu.Unlock()
	}
}

// Owners reports how many owners currently hold cached data.
func (c *Cache[K, ID, T]) Owners() int {
	n := 0
	for _, e := range c.entries() {
		e.mu.Lock()
		if len(e.items) > 0 {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// entries copies the entry set so callers never hold the map lock while
// waiting on an owner's lock.
func (c *Cache[K, ID, T]) entries() []*ownerEntry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*ownerEntry[T], 0, len(c.owners))
	for _, e := range c.owners {
		out = append(out, e)
	}
	return out
}

func (c *Cache[K, ID, T]) recordWrite(op string, owner K, res domain.Result[bool]) {
	if res.IsOk() {
		metrics.CacheWritesTotal.WithLabelValues(c.name, op, "ok").Inc()
		return
	}
	metrics.CacheWritesTotal.WithLabelValues(c.name, op, "failed").Inc()
	c.log.Warn("remote "+op+" failed, applied locally", "owner", owner, "error", res.Err())
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
