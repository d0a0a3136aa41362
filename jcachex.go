// Package jcachex provides a high-performance, thread-safe, in-process
// cache implementing TinyWindow-LFU (W-TinyLFU) admission and a set of
// classical eviction policies, with an optional distributed overlay in
// the sibling distributed package.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package jcachex

const (
	// Version of the jcachex module.
	Version = "v0.1.0-dev"

	// DefaultMaxSize is the default maximum number of Normal entries.
	DefaultMaxSize = 10_000

	// DefaultWindowRatio is the default share of capacity given to the
	// W-TinyLFU window segment.
	DefaultWindowRatio = 0.01 // 1%

	// DefaultProbationRatio is the share of the main segment reserved for
	// probationary (not yet re-accessed) entries.
	DefaultProbationRatio = 0.8 // 80%

	// DefaultCounterBits is the default width of a frequency sketch
	// counter for FrequencySketchBasic.
	DefaultCounterBits = 4

	// DefaultConcurrencyLevel sizes the storage map's shard count hint.
	DefaultConcurrencyLevel = 16

	// DefaultMaintenanceBudget caps how many recorded access events a
	// single maintenance pass applies.
	DefaultMaintenanceBudget = 0 // 0 = no cap
)
