// stats.go: L9 cache statistics — atomic counters plus a point-in-time
// snapshot type.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import "sync/atomic"

// cacheStats holds the live, mutable counters backing Cache.Stats(). All
// fields are updated with atomic ops from the hot path and the
// maintenance task; Snapshot takes a consistent-enough read without
// locking (counters may be momentarily skewed relative to each other
// under concurrent load, which is acceptable for monitoring purposes).
type cacheStats struct {
	hits          uint64
	misses        uint64
	puts          uint64
	removals      uint64
	evictions     uint64
	expirations   uint64
	loadSuccesses uint64
	loadFailures  uint64
	totalLoadNs   uint64
}

// Stats is an immutable snapshot of cache statistics at the time of the
// Stats() call.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Puts          uint64
	Removals      uint64
	Evictions     uint64
	Expirations   uint64
	LoadSuccesses uint64
	LoadFailures  uint64
	TotalLoadNs   uint64
}

// HitRate returns hits / (hits + misses), or 0 if there have been no
// lookups yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// AverageLoadNs returns the mean load latency in nanoseconds across every
// completed load (success or failure), or 0 if none have completed.
func (s Stats) AverageLoadNs() float64 {
	total := s.LoadSuccesses + s.LoadFailures
	if total == 0 {
		return 0
	}
	return float64(s.TotalLoadNs) / float64(total)
}

func newCacheStats() *cacheStats {
	return &cacheStats{}
}

func (s *cacheStats) recordHit() {
	atomic.AddUint64(&s.hits, 1)
}

func (s *cacheStats) recordMiss() {
	atomic.AddUint64(&s.misses, 1)
}

func (s *cacheStats) recordPut() {
	atomic.AddUint64(&s.puts, 1)
}

func (s *cacheStats) recordRemoval() {
	atomic.AddUint64(&s.removals, 1)
}

func (s *cacheStats) recordLoad(success bool, latencyNs int64) {
	if success {
		atomic.AddUint64(&s.loadSuccesses, 1)
	} else {
		atomic.AddUint64(&s.loadFailures, 1)
	}
	atomic.AddUint64(&s.totalLoadNs, uint64(latencyNs))
}

func (s *cacheStats) snapshot() Stats {
	return Stats{
		Hits:          atomic.LoadUint64(&s.hits),
		Misses:        atomic.LoadUint64(&s.misses),
		Puts:          atomic.LoadUint64(&s.puts),
		Removals:      atomic.LoadUint64(&s.removals),
		Evictions:     atomic.LoadUint64(&s.evictions),
		Expirations:   atomic.LoadUint64(&s.expirations),
		LoadSuccesses: atomic.LoadUint64(&s.loadSuccesses),
		LoadFailures:  atomic.LoadUint64(&s.loadFailures),
		TotalLoadNs:   atomic.LoadUint64(&s.totalLoadNs),
	}
}
