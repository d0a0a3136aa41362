// storage.go: L1 storage map — a sharded concurrent key->entry mapping.
//
// Generalizes a fixed-size lock-free array keyed by string into a sharded,
// generically-keyed map, with the shard chosen by hash and a per-shard
// RWMutex, giving
// fine-grained locking across concurrent shards once keys are no longer
// required to be strings.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import "sync"

// shard holds one partition of the storage map. Items are keyed by K
// itself, so two distinct keys with the same hash share a shard but never
// an item slot.
type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*entry[K, V]
}

// shardedMap is the L1 storage map: a concurrent key->entry mapping with
// shard selection by the low bits of the key hash.
type shardedMap[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
}

func newShardedMap[K comparable, V any](concurrencyLevel int, initialCapacity int) *shardedMap[K, V] {
	shardCount := nextPowerOf2(concurrencyLevel)
	if shardCount < 4 {
		shardCount = 4
	}
	perShardCap := initialCapacity / shardCount
	sm := &shardedMap[K, V]{
		shards:    make([]*shard[K, V], shardCount),
		shardMask: uint64(shardCount - 1),
	}
	for i := range sm.shards {
		sm.shards[i] = &shard[K, V]{items: make(map[K]*entry[K, V], perShardCap)}
	}
	return sm
}

func (sm *shardedMap[K, V]) shardFor(hash uint64) *shard[K, V] {
	return sm.shards[hash&sm.shardMask]
}

// get is non-blocking with respect to metadata: it takes only the shard
// read lock and never mutates the returned entry.
func (sm *shardedMap[K, V]) get(hash uint64, key K) (*entry[K, V], bool) {
	s := sm.shardFor(hash)
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	return e, ok
}

// putIfAbsent atomically inserts e under key iff no entry is currently
// present, returning the existing entry (and false) if one was.
func (sm *shardedMap[K, V]) putIfAbsent(hash uint64, key K, e *entry[K, V]) (*entry[K, V], bool) {
	s := sm.shardFor(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok {
		return existing, false
	}
	s.items[key] = e
	return e, true
}

// put unconditionally installs e under key, returning the previous entry
// if any.
func (sm *shardedMap[K, V]) put(hash uint64, key K, e *entry[K, V]) (*entry[K, V], bool) {
	s := sm.shardFor(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had := s.items[key]
	s.items[key] = e
	return old, had
}

// replace performs a CAS on entry identity: key's current entry must be
// exactly expected for new to be installed.
func (sm *shardedMap[K, V]) replace(hash uint64, key K, expected, new *entry[K, V]) bool {
	s := sm.shardFor(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[key]
	if !ok || current != expected {
		return false
	}
	s.items[key] = new
	return true
}

// remove atomically deletes key if its current entry equals expected (or
// unconditionally if expected is nil), marking it Removed before unlinking.
func (sm *shardedMap[K, V]) remove(hash uint64, key K, expected *entry[K, V]) (*entry[K, V], bool) {
	s := sm.shardFor(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[key]
	if !ok {
		return nil, false
	}
	if expected != nil && current != expected {
		return nil, false
	}
	current.setState(stateRemoved)
	delete(s.items, key)
	return current, true
}

// forEach performs a weakly consistent traversal: each shard is visited
// under its own read lock, so entries mutated during the traversal of a
// different shard may or may not be observed, but no single shard is ever
// torn.
func (sm *shardedMap[K, V]) forEach(f func(key K, e *entry[K, V]) bool) {
	for _, s := range sm.shards {
		s.mu.RLock()
		cont := true
		for k, e := range s.items {
			if !f(k, e) {
				cont = false
				break
			}
		}
		s.mu.RUnlock()
		if !cont {
			return
		}
	}
}

func (sm *shardedMap[K, V]) len() int {
	n := 0
	for _, s := range sm.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

func (sm *shardedMap[K, V]) clear() {
	for _, s := range sm.shards {
		s.mu.Lock()
		s.items = make(map[K]*entry[K, V], len(s.items)/2+1)
		s.mu.Unlock()
	}
}

// nextPowerOf2 returns the smallest power of two >= n (minimum 1).
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
