// config.go: cache configuration surface.
//
// Follows a Validate()/DefaultConfig() pattern that normalizes rather
// than rejects. Built as a generic Config[K,V] carrying a custom
// weigher, eviction-policy selection, refresh-after-write, and a
// generic Loader[K,V], since jcachex keys and values are not fixed to
// string/interface{}.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import (
	"context"
	"time"
)

// Weigher computes the weight (cost) of a cache entry. When set, Put uses
// it for every entry and Cache.Weight reports the sum; total weight is
// bounded only when MaxWeight is set. Without a Weigher every entry
// counts as weight 1.
type Weigher[K comparable, V any] func(key K, value V) int64

// Loader produces the value for a key on a cache miss, used by
// GetOrLoad/GetOrLoadAsync. A nil error stores the returned value under
// key; returning an error marks the load failed and stores nothing.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Config holds the construction-time parameters for a Cache[K,V].
type Config[K comparable, V any] struct {
	// MaxSize is the maximum number of entries the cache can hold. Must be
	// > 0 unless MaxWeight is set instead. Default: DefaultMaxSize.
	MaxSize int64

	// MaxWeight bounds the cache by total entry weight instead of entry
	// count. If set, Weigher must also be set (or every entry weighs 1).
	// Default: 0 (disabled, size-bounded instead).
	MaxWeight int64

	// Weigher computes the weight of each entry. If MaxWeight is set and
	// Weigher is nil, Validate installs one that weighs every entry 1.
	Weigher Weigher[K, V]

	// EvictionPolicy selects the eviction algorithm. Default: EvictionWTinyLFU.
	EvictionPolicy EvictionPolicyKind

	// FrequencySketch selects the admission sketch backing W-TinyLFU.
	// Ignored by every other eviction policy. Default: FrequencySketchBasic.
	FrequencySketch FrequencySketchKind

	// WindowRatio is the fraction of MaxSize reserved for the W-TinyLFU
	// recency window. Must be between 0.0 and 1.0. Default: DefaultWindowRatio.
	WindowRatio float64

	// ProbationRatio is the fraction of the W-TinyLFU main region held in
	// probation rather than protected. Default: DefaultProbationRatio.
	ProbationRatio float64

	// ExpireAfterWrite, if > 0, expires an entry this long after its most
	// recent write. Default: 0 (no expiration).
	ExpireAfterWrite time.Duration

	// ExpireAfterAccess is stored and can be changed by hot reload, but no
	// expiration uses it: entries are not expired by time since their
	// last read. Default: 0.
	ExpireAfterAccess time.Duration

	// RefreshAfterWrite, if > 0, marks an entry stale this long after its
	// most recent write so the next Get triggers an async reload via
	// Loader while still serving the stale value. Default: 0 (disabled).
	RefreshAfterWrite time.Duration

	// InitialCapacity hints the storage map's starting size. Default: MaxSize.
	InitialCapacity int

	// ConcurrencyLevel hints the number of storage shards and recorder
	// stripes. Default: DefaultConcurrencyLevel.
	ConcurrencyLevel int

	// Loader, if set, backs GetOrLoad/GetOrLoadAsync with at-most-once
	// concurrent loading per key. Default: nil (GetOrLoad unavailable).
	Loader Loader[K, V]

	// RecordStats enables the Stats() counters. Default: true.
	RecordStats bool

	// Hasher overrides the default key hash. Required for struct keys if
	// allocation-free hashing matters; otherwise the default falls back to
	// fmt.Sprintf. Default: defaultHasher[K].
	Hasher Hasher[K]

	// Listener, if set, receives Put/Remove/Evict/Expire notifications.
	// Default: nil (no notifications).
	Listener Listener[K, V]

	// Validator, if set, is consulted by PutValidated and after every
	// successful Loader call; a returned error rejects the write. Put and
	// Get do not consult it. Default: nil (no validation).
	Validator Validator[K, V]

	// CircuitBreaker, if set, gates Loader calls so a persistently
	// failing source fails fast instead of piling up timeouts under
	// singleflight. Default: noOpCircuitBreaker (always allows).
	CircuitBreaker CircuitBreaker

	// Logger is used for debugging and monitoring. Default: NoOpLogger.
	Logger Logger

	// TimeProvider supplies current time for TTL calculations. Default:
	// systemTimeProvider (go-timecache backed).
	TimeProvider TimeProvider

	// MetricsCollector receives per-operation latency and hit/miss counts.
	// Default: NoOpMetricsCollector (zero overhead).
	MetricsCollector MetricsCollector

	// MaintenanceBudget caps events drained per maintenance pass; 0 means
	// unbounded (drain everything queued). Default: DefaultMaintenanceBudget.
	MaintenanceBudget int
}

// Validate normalizes the configuration in place, applying defaults to
// zero-value numeric and nil fields rather than rejecting them. When
// MaxSize and MaxWeight are both unset, MaxSize becomes DefaultMaxSize.
// FrequencySketch and RecordStats keep their zero values here; it is
// DefaultConfig that sets them. It always returns nil.
func (c *Config[K, V]) Validate() error {
	if c.MaxSize <= 0 && c.MaxWeight <= 0 {
		c.MaxSize = DefaultMaxSize
	}

	if c.WindowRatio <= 0 || c.WindowRatio >= 1 {
		c.WindowRatio = DefaultWindowRatio
	}

	if c.ProbationRatio <= 0 || c.ProbationRatio >= 1 {
		c.ProbationRatio = DefaultProbationRatio
	}

	if c.InitialCapacity <= 0 {
		if c.MaxSize > 0 {
			c.InitialCapacity = int(c.MaxSize)
		} else {
			c.InitialCapacity = int(DefaultMaxSize)
		}
	}

	if c.ConcurrencyLevel <= 0 {
		c.ConcurrencyLevel = DefaultConcurrencyLevel
	}

	if c.MaxWeight > 0 && c.Weigher == nil {
		c.Weigher = func(K, V) int64 { return 1 }
	}

	if c.Hasher == nil {
		c.Hasher = newDefaultHasher[K]()
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	if c.CircuitBreaker == nil {
		c.CircuitBreaker = noOpCircuitBreaker{}
	}

	return nil
}

// DefaultConfig returns a Config with every field at its documented
// default, suitable for New without further adjustment.
func DefaultConfig[K comparable, V any]() Config[K, V] {
	cfg := Config[K, V]{
		MaxSize:           DefaultMaxSize,
		EvictionPolicy:    EvictionWTinyLFU,
		FrequencySketch:   FrequencySketchBasic,
		WindowRatio:       DefaultWindowRatio,
		ProbationRatio:    DefaultProbationRatio,
		ConcurrencyLevel:  DefaultConcurrencyLevel,
		RecordStats:       true,
		MaintenanceBudget: DefaultMaintenanceBudget,
	}
	_ = cfg.Validate()
	return cfg
}
