// hotreload.go: dynamic configuration reload via Argus.
//
// Uses the same UniversalConfigWatcherWithConfig wiring as the rest of
// this package's Argus integration, with the same caveat that structural
// parameters (here, MaxSize, MaxWeight, ConcurrencyLevel) cannot be
// hot-swapped without rebuilding the cache, only the runtime-tunable
// TTLs and maintenance budget can.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// reloadableParams is the subset of Config that hot reload is permitted
// to change without reconstructing the cache.
type reloadableParams struct {
	ExpireAfterWrite  time.Duration
	ExpireAfterAccess time.Duration
	RefreshAfterWrite time.Duration
	MaintenanceBudget int
}

// HotConfig watches a configuration file and applies runtime-tunable
// parameter changes to a running Cache[K,V] as they occur.
type HotConfig[K comparable, V any] struct {
	cache   *Cache[K, V]
	watcher *argus.Watcher
	mu      sync.RWMutex
	params  reloadableParams

	// OnReload is called after a configuration file change has been
	// applied. Optional; must be fast and non-blocking.
	OnReload func(old, new reloadableParams)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch. Supports
	// JSON, YAML, TOML, HCL, INI, and Properties, per Argus.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	Logger Logger
}

// NewHotConfig creates a hot-reloadable wrapper around cache and starts
// watching opts.ConfigPath for the runtime-tunable keys:
//
//	cache.expire_after_write (duration string, e.g. "1h")
//	cache.expire_after_access (duration string)
//	cache.refresh_after_write (duration string)
//	cache.maintenance_budget (int)
func NewHotConfig[K comparable, V any](cache *Cache[K, V], opts HotConfigOptions) (*HotConfig[K, V], error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	hc := &HotConfig[K, V]{
		cache: cache,
		params: reloadableParams{
			ExpireAfterWrite:  cache.config.ExpireAfterWrite,
			ExpireAfterAccess: cache.config.ExpireAfterAccess,
			RefreshAfterWrite: cache.config.RefreshAfterWrite,
			MaintenanceBudget: cache.config.MaintenanceBudget,
		},
	}

	argusConfig := argus.Config{PollInterval: opts.PollInterval}
	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher
	return hc, nil
}

// Start begins watching the configuration file.
func (hc *HotConfig[K, V]) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig[K, V]) Stop() error {
	return hc.watcher.Stop()
}

// Params returns the currently applied reloadable parameters.
func (hc *HotConfig[K, V]) Params() reloadableParams {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.params
}

func (hc *HotConfig[K, V]) handleConfigChange(data map[string]interface{}) {
	hc.mu.Lock()
	old := hc.params
	next := hc.parseParams(data, old)
	hc.params = next
	hc.mu.Unlock()

	hc.cache.config.ExpireAfterWrite = next.ExpireAfterWrite
	hc.cache.config.ExpireAfterAccess = next.ExpireAfterAccess
	hc.cache.config.RefreshAfterWrite = next.RefreshAfterWrite
	hc.cache.maintenance.budget = next.MaintenanceBudget

	if hc.OnReload != nil {
		hc.OnReload(old, next)
	}
}

func (hc *HotConfig[K, V]) parseParams(data map[string]interface{}, fallback reloadableParams) reloadableParams {
	params := fallback

	section, ok := data["cache"].(map[string]interface{})
	if !ok {
		if _, hasKey := data["expire_after_write"]; hasKey {
			section = data
		} else {
			return params
		}
	}

	if d, ok := parseDuration(section["expire_after_write"]); ok {
		params.ExpireAfterWrite = d
	}
	if d, ok := parseDuration(section["expire_after_access"]); ok {
		params.ExpireAfterAccess = d
	}
	if d, ok := parseDuration(section["refresh_after_write"]); ok {
		params.RefreshAfterWrite = d
	}
	if n, ok := parsePositiveInt(section["maintenance_budget"]); ok {
		params.MaintenanceBudget = n
	}

	return params
}

// parsePositiveInt extracts a positive integer from an interface{} value,
// since decoders for different file formats (YAML/JSON/TOML) disagree on
// whether a bare number decodes to int or float64.
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}
