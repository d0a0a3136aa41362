// Package ring implements a consistent hash ring with virtual nodes,
// used by the distributed package to map keys to owning nodes
// without reshuffling the whole keyspace on every membership change.
//
// Generalizes the hash-based shard selection in ../../storage.go
// (hash & (shardCount-1)) from a fixed shard count to a dynamic ring of
// virtual nodes, hashed with github.com/cespare/xxhash/v2.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package ring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultVirtualNodes is the number of ring positions hashed per real
// node when none is specified.
const DefaultVirtualNodes = 100

// Ring maps hashed keys to owning node IDs via virtual-node replication.
// Safe for concurrent use.
type Ring struct {
	mu           sync.RWMutex
	virtualNodes int
	positions    []uint64          // sorted ring positions
	owners       map[uint64]string // ring position -> node ID
	nodes        map[string]int    // node ID -> vnode count, for Remove/Members
}

// New creates an empty ring. virtualNodes <= 0 defaults to
// DefaultVirtualNodes.
func New(virtualNodes int) *Ring {
	if virtualNodes <= 0 {
		virtualNodes = DefaultVirtualNodes
	}
	return &Ring{
		virtualNodes: virtualNodes,
		owners:       make(map[uint64]string),
		nodes:        make(map[string]int),
	}
}

// AddNode inserts nodeID's virtual nodes into the ring. A no-op if
// nodeID is already present.
func (r *Ring) AddNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[nodeID]; exists {
		return
	}
	r.nodes[nodeID] = r.virtualNodes
	for i := 0; i < r.virtualNodes; i++ {
		pos := vnodeHash(nodeID, i)
		r.owners[pos] = nodeID
	}
	r.rebuildPositionsLocked()
}

// RemoveNode evicts nodeID's virtual nodes from the ring.
func (r *Ring) RemoveNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count, exists := r.nodes[nodeID]
	if !exists {
		return
	}
	for i := 0; i < count; i++ {
		delete(r.owners, vnodeHash(nodeID, i))
	}
	delete(r.nodes, nodeID)
	r.rebuildPositionsLocked()
}

// Members returns the current set of node IDs on the ring, sorted for
// deterministic iteration.
func (r *Ring) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Get returns the node owning hash, walking clockwise from hash's
// position to the first virtual node at or past it. Returns false if
// the ring is empty.
func (r *Ring) Get(hash uint64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.positions) == 0 {
		return "", false
	}
	idx := sort.Search(len(r.positions), func(i int) bool {
		return r.positions[i] >= hash
	})
	if idx == len(r.positions) {
		idx = 0
	}
	return r.owners[r.positions[idx]], true
}

// GetN returns up to n distinct nodes owning hash's position and the
// next distinct nodes walking clockwise, for replication factor n.
// Returns fewer than n if the ring has fewer distinct members.
func (r *Ring) GetN(hash uint64, n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.positions) == 0 || n <= 0 {
		return nil
	}

	start := sort.Search(len(r.positions), func(i int) bool {
		return r.positions[i] >= hash
	})

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for i := 0; i < len(r.positions) && len(out) < n; i++ {
		pos := r.positions[(start+i)%len(r.positions)]
		owner := r.owners[pos]
		if _, dup := seen[owner]; dup {
			continue
		}
		seen[owner] = struct{}{}
		out = append(out, owner)
	}
	return out
}

// HashKey hashes an arbitrary string key to a ring position.
func HashKey(key string) uint64 {
	return xxhash.Sum64String(key)
}

func vnodeHash(nodeID string, index int) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s#%d", nodeID, index))
}

func (r *Ring) rebuildPositionsLocked() {
	positions := make([]uint64, 0, len(r.owners))
	for pos := range r.owners {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	r.positions = positions
}
