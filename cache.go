// cache.go: L7 facade — the public Cache[K,V] type wiring together
// storage, the access recorder, the frequency sketch, the eviction
// policy, and the maintenance task.
//
// Follows the option-normalization construction pattern and the
// Get/Set/Delete/Stats naming and atomic counter style common across
// this package, generalized from a fixed-size open-addressed table with
// a single string key to the sharded, generically-keyed storage.go built
// earlier in this module, and from one undifferentiated hot path to the
// recorder-then-maintenance split the rest of this package implements.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Cache is a generic, concurrent in-process cache with pluggable
// eviction, optional TTL, optional weight-bounding, and an optional
// loader for at-most-once concurrent population on miss.
type Cache[K comparable, V any] struct {
	config Config[K, V]

	storage     *shardedMap[K, V]
	recorder    *stripedRecorder[K, V]
	sketch      *frequencySketch
	policy      evictionPolicy[K, V]
	maintenance *maintenanceTask[K, V]
	hasher      Hasher[K]

	stats  *cacheStats
	loader *loadGroup[K, V]

	salt   uint64 // per-cache perturbation for recorder striping
	salt2  uint64 // rotated per-goroutine-ish via atomic add
	closed int32
	done   chan struct{} // closed once, by Close, to cancel in-flight loaders
}

// New constructs a Cache from cfg, applying Validate to fill in defaults.
func New[K comparable, V any](cfg Config[K, V]) (*Cache[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	capacity := cfg.InitialCapacity
	if capacity <= 0 {
		capacity = int(DefaultMaxSize)
	}

	sketch := newFrequencySketch(capacity, cfg.FrequencySketch)

	var policy evictionPolicy[K, V]
	switch cfg.EvictionPolicy {
	case EvictionLRU:
		policy = newLRUPolicy[K, V](capacity)
	case EvictionLFU:
		policy = newLFUPolicy[K, V](capacity)
	case EvictionFIFO:
		policy = newFIFOPolicy[K, V](capacity)
	case EvictionFILO:
		policy = newFILOPolicy[K, V](capacity)
	case EvictionWeight:
		policy = newWeightPolicy[K, V](capacity)
	default:
		policy = newWTinyLFUPolicy[K, V](capacity, cfg.WindowRatio, cfg.ProbationRatio, sketch)
	}

	storage := newShardedMap[K, V](cfg.ConcurrencyLevel, capacity)
	recorder := newStripedRecorder[K, V](cfg.ConcurrencyLevel)

	var stats *cacheStats
	if cfg.RecordStats {
		stats = newCacheStats()
	}

	maxSize := int64(0)
	if cfg.MaxWeight <= 0 {
		maxSize = cfg.MaxSize
	}

	maint := newMaintenanceTask[K, V](recorder, sketch, policy, storage, maxSize, cfg.MaxWeight, cfg.TimeProvider, stats, cfg.Logger)
	maint.onEvict = func(reason EvictionReason, key K, value V) {
		if cfg.MetricsCollector != nil {
			cfg.MetricsCollector.RecordEviction()
		}
		if cfg.Listener != nil {
			cfg.Listener.OnEvent(Event[K, V]{Kind: EventEvicted, Key: key, Value: value, Reason: reason})
		}
	}
	maint.onExpire = func(key K, value V) {
		if cfg.MetricsCollector != nil {
			cfg.MetricsCollector.RecordExpiration()
		}
		if cfg.Listener != nil {
			cfg.Listener.OnEvent(Event[K, V]{Kind: EventExpired, Key: key, Value: value, Reason: EvictionReasonExpired})
		}
	}
	maint.budget = cfg.MaintenanceBudget

	c := &Cache[K, V]{
		config:      cfg,
		storage:     storage,
		recorder:    recorder,
		sketch:      sketch,
		policy:      policy,
		maintenance: maint,
		hasher:      cfg.Hasher,
		stats:       stats,
		salt:        uint64(cfg.TimeProvider.Now()) | 1,
		done:        make(chan struct{}),
	}
	c.loader = newLoadGroup(c, cfg.Loader)
	return c, nil
}

// nextSalt gives each offer() a slightly different perturbation so
// repeated access to the same key does not pin one recorder stripe.
func (c *Cache[K, V]) nextSalt() uint64 {
	return atomic.AddUint64(&c.salt2, 0x9e3779b97f4a7c15)
}

// isClosed reports whether Close has already run.
func (c *Cache[K, V]) isClosed() bool {
	return atomic.LoadInt32(&c.closed) != 0
}

// Get returns the value stored under key and true, or the zero value and
// false if absent, expired, not yet loaded, or the cache is closed.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if c.isClosed() {
		var zero V
		return zero, false
	}
	start := c.config.TimeProvider.Now()
	hash := c.hasher.Hash(key)
	e, ok := c.storage.get(hash, key)
	if !ok || e.getState() != stateNormal {
		c.recordMiss(start)
		var zero V
		return zero, false
	}
	now := c.config.TimeProvider.Now()
	if e.isExpiredAt(now) {
		c.recordMiss(start)
		var zero V
		return zero, false
	}

	c.recorder.offer(eventRead, hash, e, c.nextSalt())
	if c.recorder.needsDrain() {
		c.maintenance.run()
	}

	c.maybeScheduleRefresh(key, e, now)

	c.recordHit(start)
	return e.loadValue(), true
}

// maybeScheduleRefresh starts an at-most-once background reload of key
// when e is due for refresh-after-write, serving the stale value to this
// call while the reload runs. The refreshing flag keeps concurrent Get
// calls on the same stale entry from piling up redundant goroutines; it
// is reset if the reload fails so a later Get can retry.
func (c *Cache[K, V]) maybeScheduleRefresh(key K, e *entry[K, V], now int64) {
	if c.config.Loader == nil || !e.needsRefreshAt(now) {
		return
	}
	if !atomic.CompareAndSwapInt32(&e.refreshing, 0, 1) {
		return
	}
	go func() {
		ctx, cancel := c.cancelOnClose(context.Background())
		defer cancel()
		_, err := c.loader.refresh(ctx, key)
		if err != nil {
			atomic.StoreInt32(&e.refreshing, 0)
		}
	}()
}

// cancelOnClose derives a context from parent that is also cancelled
// when this cache's Close runs, so a refresh or load started before
// Close does not outlive it.
func (c *Cache[K, V]) cancelOnClose(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (c *Cache[K, V]) recordHit(start int64) {
	if c.stats != nil {
		c.stats.recordHit()
	}
	if c.config.MetricsCollector != nil {
		c.config.MetricsCollector.RecordGet(c.config.TimeProvider.Now()-start, true)
	}
}

func (c *Cache[K, V]) recordMiss(start int64) {
	if c.stats != nil {
		c.stats.recordMiss()
	}
	if c.config.MetricsCollector != nil {
		c.config.MetricsCollector.RecordGet(c.config.TimeProvider.Now()-start, false)
	}
}

// Put inserts or overwrites the value stored under key. A no-op once the
// cache is closed.
func (c *Cache[K, V]) Put(key K, value V) {
	if c.isClosed() {
		return
	}
	start := c.config.TimeProvider.Now()
	hash := c.hasher.Hash(key)
	now := start

	weight := int64(1)
	if c.config.Weigher != nil {
		weight = c.config.Weigher(key, value)
	}

	expireAt := int64(0)
	if c.config.ExpireAfterWrite > 0 {
		expireAt = now + c.config.ExpireAfterWrite.Nanoseconds()
	}

	e := newEntry[K, V](key, hash, value, now, weight, expireAt)
	if c.config.RefreshAfterWrite > 0 {
		e.refreshAtNano = now + c.config.RefreshAfterWrite.Nanoseconds()
	}

	old, had := c.storage.put(hash, key, e)

	if had && old.casState(stateNormal, stateRemoved) {
		c.maintenance.mu.Lock()
		c.maintenance.forget(key, old)
		c.maintenance.mu.Unlock()
		if c.config.Listener != nil {
			c.config.Listener.OnEvent(Event[K, V]{Kind: EventRemoved, Key: key, Value: old.loadValue(), Reason: EvictionReasonReplaced})
		}
	}

	c.recorder.offer(eventWrite, hash, e, c.nextSalt())
	c.maintenance.run()

	if c.stats != nil {
		c.stats.recordPut()
	}
	if c.config.MetricsCollector != nil {
		c.config.MetricsCollector.RecordSet(c.config.TimeProvider.Now() - start)
	}
	if c.config.Listener != nil {
		c.config.Listener.OnEvent(Event[K, V]{Kind: EventPut, Key: key, Value: value})
	}
}

// PutValidated behaves like Put but first runs value through the
// configured Validator (if any), rejecting the write without installing
// the entry when validation fails.
func (c *Cache[K, V]) PutValidated(key K, value V) error {
	if c.isClosed() {
		return NewErrInvalidState("cache closed")
	}
	if c.config.Validator != nil {
		if err := c.config.Validator.Validate(key, value); err != nil {
			return NewErrInvalidValue(fmt.Sprintf("key %v: %v", key, err))
		}
	}
	c.Put(key, value)
	return nil
}

// PutIfAbsent inserts value under key only if key is not already present
// (and not expired), returning the value now stored under key and whether
// the insert happened. Reports false without inserting once the cache is
// closed.
func (c *Cache[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	if c.isClosed() {
		var zero V
		return zero, false
	}
	hash := c.hasher.Hash(key)
	now := c.config.TimeProvider.Now()

	if existing, ok := c.storage.get(hash, key); ok && existing.getState() == stateNormal && !existing.isExpiredAt(now) {
		return existing.loadValue(), false
	}

	weight := int64(1)
	if c.config.Weigher != nil {
		weight = c.config.Weigher(key, value)
	}
	expireAt := int64(0)
	if c.config.ExpireAfterWrite > 0 {
		expireAt = now + c.config.ExpireAfterWrite.Nanoseconds()
	}

	e := newEntry[K, V](key, hash, value, now, weight, expireAt)
	installed, inserted := c.storage.putIfAbsent(hash, key, e)
	if !inserted {
		return installed.loadValue(), false
	}

	c.recorder.offer(eventWrite, hash, e, c.nextSalt())
	c.maintenance.run()
	if c.stats != nil {
		c.stats.recordPut()
	}
	if c.config.Listener != nil {
		c.config.Listener.OnEvent(Event[K, V]{Kind: EventPut, Key: key, Value: value})
	}
	return value, true
}

// Remove deletes key if present, returning the removed value and true.
// Reports false without removing anything once the cache is closed.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	if c.isClosed() {
		var zero V
		return zero, false
	}
	start := c.config.TimeProvider.Now()
	hash := c.hasher.Hash(key)

	e, ok := c.storage.get(hash, key)
	if !ok {
		var zero V
		return zero, false
	}
	removed, ok := c.storage.remove(hash, key, e)
	if !ok {
		var zero V
		return zero, false
	}

	c.maintenance.mu.Lock()
	c.maintenance.forgetAfterExternalRemoval(key, removed)
	c.maintenance.mu.Unlock()

	if c.stats != nil {
		c.stats.recordRemoval()
	}
	if c.config.MetricsCollector != nil {
		c.config.MetricsCollector.RecordDelete(c.config.TimeProvider.Now() - start)
	}
	if c.config.Listener != nil {
		c.config.Listener.OnEvent(Event[K, V]{Kind: EventRemoved, Key: key, Value: removed.loadValue(), Reason: EvictionReasonExplicit})
	}
	return removed.loadValue(), true
}

// Compute updates the value under key: fn receives the current value
// (zero value and false if absent) and returns the new value and whether
// to keep the mapping. The read (Get) and the write (Put or Remove) are
// separate steps and are not atomic together: concurrent Compute calls on
// the same key may each run fn on the same old value, and the last write
// wins, like Put. Reports false without calling fn once the cache is
// closed.
func (c *Cache[K, V]) Compute(key K, fn func(old V, found bool) (V, bool)) (V, bool) {
	if c.isClosed() {
		var zero V
		return zero, false
	}
	old, found := c.Get(key)
	newVal, keep := fn(old, found)
	if !keep {
		c.Remove(key)
		var zero V
		return zero, false
	}
	c.Put(key, newVal)
	return newVal, true
}

// GetOrLoad returns the cached value for key, or invokes the configured
// Loader on a miss with at-most-once concurrent execution per key. Fails
// with InvalidState once the cache is closed.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K) (V, error) {
	if c.isClosed() {
		var zero V
		return zero, NewErrInvalidState("cache closed")
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	ctx, cancel := c.cancelOnClose(ctx)
	defer cancel()
	return c.loader.load(ctx, key)
}

// Size returns the number of entries currently tracked (before any
// pending maintenance pass has caught up with the latest writes).
func (c *Cache[K, V]) Size() int64 {
	return c.maintenance.size()
}

// Weight returns the total weight of entries currently tracked.
func (c *Cache[K, V]) Weight() int64 {
	return c.maintenance.weight()
}

// Clear removes every entry from the cache. A no-op once the cache is
// closed.
func (c *Cache[K, V]) Clear() {
	if c.isClosed() {
		return
	}
	c.storage.clear()
	c.maintenance.mu.Lock()
	c.maintenance.tracked = make(map[K]struct{})
	c.maintenance.expItems = make(map[K]*expirationItem[K, V])
	c.maintenance.expiry = nil
	atomic.StoreInt64(&c.maintenance.currentSize, 0)
	atomic.StoreInt64(&c.maintenance.currentWeight, 0)
	c.maintenance.mu.Unlock()
}

// ForEach visits every entry currently in the cache in unspecified order,
// stopping early if f returns false. The traversal is weakly consistent:
// entries inserted or removed concurrently may or may not be observed.
// Visits nothing once the cache is closed.
func (c *Cache[K, V]) ForEach(f func(key K, value V) bool) {
	if c.isClosed() {
		return
	}
	now := c.config.TimeProvider.Now()
	c.storage.forEach(func(key K, e *entry[K, V]) bool {
		if e.getState() != stateNormal || e.isExpiredAt(now) {
			return true
		}
		return f(key, e.loadValue())
	})
}

// Stats returns a snapshot of the cache's operation counters. If
// RecordStats was false at construction, every field is zero.
func (c *Cache[K, V]) Stats() Stats {
	if c.stats == nil {
		return Stats{}
	}
	return c.stats.snapshot()
}

// Close marks the cache closed: every subsequent public operation fails
// with InvalidState (or, for operations with no error to carry one, is a
// no-op). Close drains any pending maintenance pass and cancels in-flight
// loaders and refreshes started through this cache (their result, if any,
// is discarded). Close is idempotent.
func (c *Cache[K, V]) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.done)
	c.maintenance.run()
	return nil
}
