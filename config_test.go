// config_test.go: tests for Config[K,V] normalization.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package jcachex

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig[string, int]()
	if cfg.MaxSize != DefaultMaxSize {
		t.Errorf("MaxSize = %d, want %d", cfg.MaxSize, DefaultMaxSize)
	}
	if cfg.EvictionPolicy != EvictionWTinyLFU {
		t.Errorf("EvictionPolicy = %v, want EvictionWTinyLFU", cfg.EvictionPolicy)
	}
	if cfg.Hasher == nil {
		t.Error("Hasher should default to a non-nil hasher")
	}
	if cfg.Logger == nil {
		t.Error("Logger should default to NoOpLogger")
	}
	if cfg.TimeProvider == nil {
		t.Error("TimeProvider should default to systemTimeProvider")
	}
	if cfg.MetricsCollector == nil {
		t.Error("MetricsCollector should default to NoOpMetricsCollector")
	}
	if cfg.CircuitBreaker == nil {
		t.Error("CircuitBreaker should default to noOpCircuitBreaker")
	}
}

func TestValidateFillsMaxSizeWhenUnset(t *testing.T) {
	cfg := Config[string, int]{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.MaxSize != DefaultMaxSize {
		t.Errorf("MaxSize = %d, want %d", cfg.MaxSize, DefaultMaxSize)
	}
}

func TestValidateLeavesMaxWeightConfigAlone(t *testing.T) {
	cfg := Config[string, int]{MaxWeight: 100}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.MaxSize != 0 {
		t.Errorf("MaxSize = %d, want 0 (weight-bounded cache shouldn't get a size default)", cfg.MaxSize)
	}
	if cfg.Weigher == nil {
		t.Error("Weigher should default to a constant-1 weigher when MaxWeight is set")
	}
}

func TestValidateNormalizesOutOfRangeRatios(t *testing.T) {
	cfg := Config[string, int]{WindowRatio: 5, ProbationRatio: -1}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.WindowRatio != DefaultWindowRatio {
		t.Errorf("WindowRatio = %f, want default %f", cfg.WindowRatio, DefaultWindowRatio)
	}
	if cfg.ProbationRatio != DefaultProbationRatio {
		t.Errorf("ProbationRatio = %f, want default %f", cfg.ProbationRatio, DefaultProbationRatio)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	cfg := DefaultConfig[string, int]()
	beforeMaxSize := cfg.MaxSize
	beforeWindowRatio := cfg.WindowRatio
	beforeConcurrency := cfg.ConcurrencyLevel

	if err := cfg.Validate(); err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if cfg.MaxSize != beforeMaxSize {
		t.Errorf("MaxSize changed on a second Validate: %d -> %d", beforeMaxSize, cfg.MaxSize)
	}
	if cfg.WindowRatio != beforeWindowRatio {
		t.Errorf("WindowRatio changed on a second Validate: %f -> %f", beforeWindowRatio, cfg.WindowRatio)
	}
	if cfg.ConcurrencyLevel != beforeConcurrency {
		t.Errorf("ConcurrencyLevel changed on a second Validate: %d -> %d", beforeConcurrency, cfg.ConcurrencyLevel)
	}
}

func TestNewRejectsNothingButNormalizes(t *testing.T) {
	c, err := New(Config[string, int]{})
	if err != nil {
		t.Fatalf("New with a zero-value Config should normalize rather than error: %v", err)
	}
	c.Put("k", 1)
	if v, ok := c.Get("k"); !ok || v != 1 {
		t.Errorf("Get(k) = %v, %v; want 1, true", v, ok)
	}
}
