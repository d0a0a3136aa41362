// entry.go: L2 entry metadata — the value container CacheEntry<K,V> from
// the data model, plus its state machine.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import (
	"sync/atomic"
)

// entryState is the lifecycle state of a cache entry.
type entryState int32

const (
	stateNormal entryState = iota
	stateLoading
	stateExpired
	stateRemoved
)

// maxAccessCount is the saturation bound for entry.accessCount (0-15 is
// sufficient for admission decisions per the data model).
const maxAccessCount = 15

// entry is the in-memory representation of CacheEntry<K,V>. It is owned
// exclusively by the storage map; the access recorder only ever holds a
// non-owning handle (a *entry[K,V] pointer) that the maintenance task
// treats as valid only while the entry's state is still reachable from
// storage. The key is carried on the entry itself (rather than only its
// hash) so the fixed-size access event can stay generic over nothing but
// the value type while maintenance can still report which key a selected
// victim belongs to.
type entry[K comparable, V any] struct {
	key  K
	hash uint64 // immutable once stored

	value atomic.Pointer[V]

	createdAtNanos int64 // written once at insert
	lastAccessNano int64 // written only by maintenance, not the hot path

	expireAtNanos int64 // 0 = no expiration; absolute unix nanos
	refreshAtNano int64 // 0 = no refresh-after-write threshold configured

	weight int64 // non-negative; 1 if no custom weigher

	accessCount int32 // saturating 0..15, owned by maintenance
	state       int32 // entryState, atomic
	refreshing  int32 // CAS guard: at most one background refresh in flight
}

func newEntry[K comparable, V any](key K, hash uint64, value V, now int64, weight int64, expireAt int64) *entry[K, V] {
	e := &entry[K, V]{
		key:            key,
		hash:           hash,
		createdAtNanos: now,
		lastAccessNano: now,
		expireAtNanos:  expireAt,
		weight:         weight,
	}
	e.value.Store(&value)
	atomic.StoreInt32(&e.state, int32(stateNormal))
	return e
}

func (e *entry[K, V]) loadValue() V {
	p := e.value.Load()
	if p == nil {
		var zero V
		return zero
	}
	return *p
}

func (e *entry[K, V]) storeValue(v V) {
	e.value.Store(&v)
}

func (e *entry[K, V]) getState() entryState {
	return entryState(atomic.LoadInt32(&e.state))
}

func (e *entry[K, V]) casState(from, to entryState) bool {
	return atomic.CompareAndSwapInt32(&e.state, int32(from), int32(to))
}

func (e *entry[K, V]) setState(s entryState) {
	atomic.StoreInt32(&e.state, int32(s))
}

// isExpiredAt reports whether the entry's absolute deadline has passed as
// of now. An entry with expireAtNanos == 0 never expires.
func (e *entry[K, V]) isExpiredAt(now int64) bool {
	deadline := atomic.LoadInt64(&e.expireAtNanos)
	return deadline > 0 && now >= deadline
}

// needsRefreshAt reports whether the entry is due for a refresh-after-write
// but is not yet expired (so the stale value is still servable).
func (e *entry[K, V]) needsRefreshAt(now int64) bool {
	threshold := atomic.LoadInt64(&e.refreshAtNano)
	return threshold > 0 && now >= threshold && !e.isExpiredAt(now)
}

// bumpAccessCount increments the saturating counter, called only from the
// maintenance task while draining access events.
func (e *entry[K, V]) bumpAccessCount() {
	for {
		old := atomic.LoadInt32(&e.accessCount)
		if old >= maxAccessCount {
			return
		}
		if atomic.CompareAndSwapInt32(&e.accessCount, old, old+1) {
			return
		}
	}
}

func (e *entry[K, V]) getAccessCount() int32 {
	return atomic.LoadInt32(&e.accessCount)
}

func (e *entry[K, V]) touch(now int64) {
	atomic.StoreInt64(&e.lastAccessNano, now)
}

func (e *entry[K, V]) getWeight() int64 {
	return atomic.LoadInt64(&e.weight)
}
