// config.go: construction-time parameters for an Overlay.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package distributed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the parameters for NewOverlay.
type Config struct {
	// SelfID identifies this node on the ring. Generated via
	// NewNodeID() if empty.
	SelfID string

	// SelfAddr is the address other nodes dial to reach this node's
	// transport listener.
	SelfAddr string

	// ReplicationFactor is how many nodes own each key. Default: 2.
	ReplicationFactor int

	// Partitions is stored on the overlay's configuration. Default:
	// DefaultPartitions. Keys are hashed straight onto the ring; nothing
	// divides the keyspace into this many partitions.
	Partitions int

	// VirtualNodes is how many ring positions each member hashes to.
	// Default: ring.DefaultVirtualNodes.
	VirtualNodes int

	// ConsistencyLevel is the default level applied when an operation
	// doesn't specify its own. Default: Strong (the zero value).
	ConsistencyLevel ConsistencyLevel

	// RequestTimeout bounds a single replica round-trip. Default: 2s.
	RequestTimeout time.Duration

	// ReadRepair enables best-effort propagation of a newer Version
	// discovered during a quorum read back to stale replicas. Default:
	// false (the zero value); set explicitly to enable.
	ReadRepair bool

	// Transport overrides the default framed-TCP transport. Default:
	// nil (NewOverlay constructs transport.NewTCPTransport(SelfAddr)).
	Transport Transport

	// Registerer receives the overlay's Prometheus collectors. Default:
	// nil (metrics are computed but never exported).
	Registerer prometheus.Registerer
}

func (c *Config) setDefaults() error {
	if c.SelfID == "" {
		id, err := NewNodeID()
		if err != nil {
			return err
		}
		c.SelfID = id
	}
	if c.ReplicationFactor <= 0 {
		c.ReplicationFactor = 2
	}
	if c.Partitions <= 0 {
		c.Partitions = DefaultPartitions
	}
	if c.VirtualNodes <= 0 {
		c.VirtualNodes = 100
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 2 * time.Second
	}
	return nil
}
