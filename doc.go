// Package jcachex implements a generic, high-performance in-process cache
// with W-TinyLFU admission by default, plus LRU, LFU, FIFO, FILO, and
// weight-based alternatives.
//
// Reads and writes are recorded into a striped lock-free ring buffer and
// replayed by a maintenance pass that owns the frequency sketch, the
// eviction policy's internal state, and the expiration heap. There is no
// background goroutine: Put runs a pass on the calling goroutine, Get runs
// one when the buffer has overflowed, and a mutex lets only one pass run
// at a time. This keeps concurrent
// throughput high without sacrificing W-TinyLFU's scan resistance.
//
// # Basic usage
//
//	cache, err := jcachex.New(jcachex.DefaultConfig[string, int]())
//	if err != nil {
//		log.Fatal(err)
//	}
//	cache.Put("a", 1)
//	v, ok := cache.Get("a")
//
// # Loading on miss
//
//	cfg := jcachex.DefaultConfig[string, *User]()
//	cfg.Loader = func(ctx context.Context, id string) (*User, error) {
//		return fetchUser(ctx, id)
//	}
//	cache, _ := jcachex.New(cfg)
//	user, err := cache.GetOrLoad(ctx, "u123")
//
// # Distributed overlay
//
// The distributed subpackage layers a consistent-hash ring, configurable
// replication factor, and tunable consistency levels (strong, eventual,
// session, monotonic-read) over a set of local Cache[K,V] instances
// reachable via a framed TCP transport. It is optional: nothing in this
// package depends on it.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package jcachex
