// maintenance.go: L6 maintenance task — the single-consumer routine that
// drains access events into the frequency sketch and eviction policy,
// sweeps expired entries, and enforces the size/weight bound.
//
// Many simpler caches mutate the sketch directly on the hot path and
// expire lazily on Get, with no separate maintenance consumer at all.
// Here the hot path must stay a single CAS, so everything else — sketch
// aging, policy bookkeeping, expiration sweeps, bound enforcement — is
// deferred to this single-consumer task.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import (
	"container/heap"
	"sync"
	"sync/atomic"
)

// expirationItem is one entry in the maintenance task's deadline heap.
type expirationItem[K comparable, V any] struct {
	key      K
	ent      *entry[K, V]
	deadline int64
	index    int
}

type expirationHeap[K comparable, V any] []*expirationItem[K, V]

func (h expirationHeap[K, V]) Len() int           { return len(h) }
func (h expirationHeap[K, V]) Less(i, j int) bool { return h[i].deadline < h[j].deadline }
func (h expirationHeap[K, V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *expirationHeap[K, V]) Push(x interface{}) {
	item := x.(*expirationItem[K, V])
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *expirationHeap[K, V]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// maintenanceTask owns the frequency sketch and the active eviction
// policy: every change to the policy happens with mu held.
type maintenanceTask[K comparable, V any] struct {
	mu sync.Mutex // serializes maintenance passes and the Put/Remove/Clear bookkeeping in cache.go

	recorder *stripedRecorder[K, V]
	sketch   *frequencySketch
	policy   evictionPolicy[K, V]
	storage  *shardedMap[K, V]
	tracked  map[K]struct{} // keys the policy already knows about

	expiry   expirationHeap[K, V]
	expItems map[K]*expirationItem[K, V]

	maxSize       int64
	maxWeight     int64
	currentSize   int64
	currentWeight int64

	budget int // max events drained per pass; 0 = unbounded

	onEvict  func(reason EvictionReason, key K, value V)
	onExpire func(key K, value V)

	time   TimeProvider
	stats  *cacheStats
	logger Logger
}

func newMaintenanceTask[K comparable, V any](
	recorder *stripedRecorder[K, V],
	sketch *frequencySketch,
	policy evictionPolicy[K, V],
	storage *shardedMap[K, V],
	maxSize, maxWeight int64,
	tp TimeProvider,
	stats *cacheStats,
	logger Logger,
) *maintenanceTask[K, V] {
	return &maintenanceTask[K, V]{
		recorder:  recorder,
		sketch:    sketch,
		policy:    policy,
		storage:   storage,
		tracked:   make(map[K]struct{}),
		expItems:  make(map[K]*expirationItem[K, V]),
		maxSize:   maxSize,
		maxWeight: maxWeight,
		time:      tp,
		stats:     stats,
		logger:    logger,
	}
}

// trackNew registers a freshly inserted entry with the policy and, if it
// has an expiration deadline, with the expiration heap. Called the first
// time an entry's write event is drained, whether that happens before or
// after the caller's Put call has returned.
func (m *maintenanceTask[K, V]) trackNew(key K, e *entry[K, V]) {
	if _, already := m.tracked[key]; already {
		m.policy.onAccess(key, e)
		return
	}
	m.tracked[key] = struct{}{}
	m.policy.onInsert(key, e)
	atomic.AddInt64(&m.currentSize, 1)
	atomic.AddInt64(&m.currentWeight, e.getWeight())
	if deadline := e.expireAtNanos; deadline > 0 {
		item := &expirationItem[K, V]{key: key, ent: e, deadline: deadline}
		m.expItems[key] = item
		heap.Push(&m.expiry, item)
	}
}

// forget removes bookkeeping for an entry that left the cache by any
// means (explicit remove, eviction, or expiration).
func (m *maintenanceTask[K, V]) forget(key K, e *entry[K, V]) {
	if _, ok := m.tracked[key]; !ok {
		return
	}
	delete(m.tracked, key)
	m.policy.onRemove(key, e)
	atomic.AddInt64(&m.currentSize, -1)
	atomic.AddInt64(&m.currentWeight, -e.getWeight())
	if item, ok := m.expItems[key]; ok {
		heap.Remove(&m.expiry, item.index)
		delete(m.expItems, key)
	}
}

// run performs one maintenance pass: drain access events, sweep expired
// entries, then enforce size/weight. Safe to call concurrently from
// multiple goroutines; only one pass actually runs at a time.
func (m *maintenanceTask[K, V]) run() {
	if !m.recorder.tryBeginDrain() {
		return
	}
	defer m.recorder.endDrain()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.drain()
	m.sweepExpired()
	m.enforceBounds()
}

func (m *maintenanceTask[K, V]) drain() {
	now := m.time.Now()
	drained := 0
	m.recorder.drainInto(func(ev accessEvent[K, V]) {
		if m.budget > 0 && drained >= m.budget {
			return
		}
		drained++

		m.sketch.record(ev.hash)
		if ev.slot == nil {
			return
		}
		key := ev.slot.key

		switch ev.kind {
		case eventRead:
			ev.slot.touch(now)
			ev.slot.bumpAccessCount()
			if _, known := m.tracked[key]; known {
				m.policy.onAccess(key, ev.slot)
			} else {
				m.trackNew(key, ev.slot)
			}
		case eventWrite:
			ev.slot.touch(now)
			m.trackNew(key, ev.slot)
		case eventRemove:
			// Handled synchronously by the facade's remove path; nothing
			// further to do here.
		}
	})
}

// sweepExpired removes every entry whose absolute deadline has passed.
func (m *maintenanceTask[K, V]) sweepExpired() {
	now := m.time.Now()
	for m.expiry.Len() > 0 {
		top := m.expiry[0]
		if top.deadline > now {
			break
		}
		heap.Pop(&m.expiry)
		delete(m.expItems, top.key)

		if top.ent.casState(stateNormal, stateExpired) {
			m.storage.remove(top.ent.hash, top.key, top.ent)
			m.forgetAfterExternalRemoval(top.key, top.ent)
			if m.stats != nil {
				atomic.AddUint64(&m.stats.expirations, 1)
			}
			if m.onExpire != nil {
				m.onExpire(top.key, top.ent.loadValue())
			}
		}
	}
}

// forgetAfterExternalRemoval is forget without the expiration-heap
// removal step, since the caller already popped the heap entry.
func (m *maintenanceTask[K, V]) forgetAfterExternalRemoval(key K, e *entry[K, V]) {
	if _, ok := m.tracked[key]; !ok {
		return
	}
	delete(m.tracked, key)
	m.policy.onRemove(key, e)
	atomic.AddInt64(&m.currentSize, -1)
	atomic.AddInt64(&m.currentWeight, -e.getWeight())
}

// enforceBounds evicts entries while the cache exceeds its configured
// size or weight bound, applying the active policy's admission rule.
func (m *maintenanceTask[K, V]) enforceBounds() {
	for m.overBound() {
		key, victim, ok := m.policy.selectVictim()
		if !ok {
			return
		}
		if victim.casState(stateNormal, stateRemoved) {
			m.storage.remove(victim.hash, key, victim)
			atomic.AddInt64(&m.currentSize, -1)
			atomic.AddInt64(&m.currentWeight, -victim.getWeight())
			delete(m.tracked, key)
			if item, ok := m.expItems[key]; ok {
				heap.Remove(&m.expiry, item.index)
				delete(m.expItems, key)
			}
			if m.stats != nil {
				atomic.AddUint64(&m.stats.evictions, 1)
			}
			if m.onEvict != nil {
				reason := EvictionReasonSize
				if m.maxWeight > 0 {
					reason = EvictionReasonWeight
				}
				m.onEvict(reason, key, victim.loadValue())
			}
		}
	}
}

func (m *maintenanceTask[K, V]) overBound() bool {
	if m.maxSize > 0 && atomic.LoadInt64(&m.currentSize) > m.maxSize {
		return true
	}
	if m.maxWeight > 0 && atomic.LoadInt64(&m.currentWeight) > m.maxWeight {
		return true
	}
	return false
}

func (m *maintenanceTask[K, V]) size() int64 {
	return atomic.LoadInt64(&m.currentSize)
}

func (m *maintenanceTask[K, V]) weight() int64 {
	return atomic.LoadInt64(&m.currentWeight)
}
