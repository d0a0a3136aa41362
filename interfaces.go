// interfaces.go: small seams the core depends on (logging, time, hashing).
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import (
	"fmt"
	"strconv"

	timecache "github.com/agilira/go-timecache"
)

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time with caching for performance.
// This interface allows injecting optimized time implementations.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	// This method must be very fast and allocation-free.
	Now() int64
}

// systemTimeProvider is the default TimeProvider, backed by go-timecache's
// periodically refreshed clock so the hot path avoids a time.Now() syscall.
type systemTimeProvider struct{}

func (systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}

// Hasher produces a 64-bit digest for a key, used for shard routing and
// frequency-sketch addressing. The core ships a default for the common
// comparable kinds; callers with struct keys should supply their own to
// avoid the fmt.Sprintf fallback's allocation.
type Hasher[K comparable] interface {
	Hash(key K) uint64
}

// defaultHasher covers the common built-in key kinds without allocating,
// falling back to hashing a formatted representation for anything else.
type defaultHasher[K comparable] struct{}

func newDefaultHasher[K comparable]() Hasher[K] {
	return defaultHasher[K]{}
}

func (defaultHasher[K]) Hash(key K) uint64 {
	switch v := any(key).(type) {
	case string:
		return stringHash(v)
	case int:
		return stringHash(strconv.Itoa(v))
	case int8:
		return stringHash(strconv.FormatInt(int64(v), 10))
	case int16:
		return stringHash(strconv.FormatInt(int64(v), 10))
	case int32:
		return stringHash(strconv.FormatInt(int64(v), 10))
	case int64:
		return stringHash(strconv.FormatInt(v, 10))
	case uint:
		return stringHash(strconv.FormatUint(uint64(v), 10))
	case uint8:
		return stringHash(strconv.FormatUint(uint64(v), 10))
	case uint16:
		return stringHash(strconv.FormatUint(uint64(v), 10))
	case uint32:
		return stringHash(strconv.FormatUint(uint64(v), 10))
	case uint64:
		return stringHash(strconv.FormatUint(v, 10))
	default:
		// Uncommon key types pay one allocation per hash; common ones above
		// do not.
		return stringHash(fmt.Sprintf("%v", key))
	}
}

// stringHash computes a 64-bit FNV-1a hash of s.
func stringHash(s string) uint64 {
	const (
		fnv64Offset = 14695981039346656037
		fnv64Prime  = 1099511628211
	)
	hash := uint64(fnv64Offset)
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= fnv64Prime
	}
	return hash
}
