// version.go: logical-clock versioning for conflict resolution across
// replicas, used by the coordinator's read-repair and the overlay's
// last-writer-wins merge on concurrent writes to the same key.
//
// Grounded on the O-tero-Distributed-Caching-System cache manager's
// CachedAt/ExpiresAt stamping idea, generalized from wall-clock
// timestamps (which can go backwards across nodes) to a
// {nodeID, sequence} logical clock.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package distributed

import "sync/atomic"

// Version identifies a write's position in a per-node logical clock.
// Two versions from different nodes are compared by Sequence first,
// ties broken by NodeID, so every pair of versions is totally ordered.
type Version struct {
	NodeID   uint64
	Sequence uint64
}

// Compare returns -1, 0, or 1 if v sorts before, equal to, or after
// other.
func (v Version) Compare(other Version) int {
	if v.Sequence != other.Sequence {
		if v.Sequence < other.Sequence {
			return -1
		}
		return 1
	}
	if v.NodeID != other.NodeID {
		if v.NodeID < other.NodeID {
			return -1
		}
		return 1
	}
	return 0
}

// After reports whether v is strictly newer than other.
func (v Version) After(other Version) bool {
	return v.Compare(other) > 0
}

// clock generates monotonically increasing Versions for one node.
type clock struct {
	nodeID uint64
	seq    atomic.Uint64
}

func newClock(nodeID uint64) *clock {
	return &clock{nodeID: nodeID}
}

func (c *clock) next() Version {
	return Version{NodeID: c.nodeID, Sequence: c.seq.Add(1)}
}
