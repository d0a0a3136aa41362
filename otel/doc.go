// Package otel provides an OpenTelemetry-backed jcachex.MetricsCollector.
//
// Wire it into a cache's configuration:
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, err := otel.NewOTelMetricsCollector(provider)
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg := jcachex.DefaultConfig[string, string]()
//	cfg.MetricsCollector = collector
//	cache, _ := jcachex.New(cfg)
//
// Exposed instruments: jcachex_get_latency_ns, jcachex_set_latency_ns,
// jcachex_delete_latency_ns histograms; jcachex_get_hits_total,
// jcachex_get_misses_total, jcachex_evictions_total,
// jcachex_expirations_total counters. Nothing in the jcachex core package
// imports OTEL; this package is the only place that dependency appears.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package otel
