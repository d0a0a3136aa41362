// topology.go: cluster membership view — the set of known nodes, their
// health, and the key ownership ring built over them.
//
// Generalizes the shard-count-from-concurrency-level sizing in
// ../storage.go from a fixed local shard count to a dynamic, rebuildable
// ring of remote partitions; ring math lives in internal/ring and is
// reused here rather than reimplemented.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package distributed

import (
	"sync"
	"time"

	"github.com/jcachex/jcachex/internal/ring"
)

// DefaultPartitions is the value Config.Partitions takes when unset. The
// ring is not divided into partitions; keys hash directly onto it.
const DefaultPartitions = 256

// Topology tracks cluster membership and owns the consistent-hash ring
// mapping keys to nodes. Safe for concurrent use.
type Topology struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	ring  *ring.Ring
}

// NewTopology creates an empty topology with virtualNodes virtual nodes
// per member hashed onto the ring.
func NewTopology(virtualNodes int) *Topology {
	return &Topology{
		nodes: make(map[string]*Node),
		ring:  ring.New(virtualNodes),
	}
}

// Join adds or updates a node's membership record and its ring
// position.
func (t *Topology) Join(n Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.LastSeen = time.Now()
	if _, existed := t.nodes[n.ID]; !existed {
		t.ring.AddNode(n.ID)
	}
	stored := n
	t.nodes[n.ID] = &stored
}

// Leave removes a node from membership and the ring.
func (t *Topology) Leave(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nodes, nodeID)
	t.ring.RemoveNode(nodeID)
}

// MarkStatus updates a known node's health status.
func (t *Topology) MarkStatus(nodeID string, status NodeStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.nodes[nodeID]; ok {
		n.Status = status
		n.LastSeen = time.Now()
	}
}

// Node returns the membership record for nodeID.
func (t *Topology) Node(nodeID string) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[nodeID]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Members returns every known node, healthy or not.
func (t *Topology) Members() []Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, *n)
	}
	return out
}

// Owners returns the replicationFactor nodes responsible for key,
// taken from the first replicationFactor*3+1 distinct ring successors,
// skipping only nodes marked Failed (Degraded and Unreachable nodes are
// kept). Returns fewer than replicationFactor if not enough remain.
func (t *Topology) Owners(key string, replicationFactor int) []Node {
	hash := ring.HashKey(key)
	candidateIDs := t.ring.GetN(hash, replicationFactor*3+1) // overshoot, then filter Failed

	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Node, 0, replicationFactor)
	for _, id := range candidateIDs {
		if len(out) >= replicationFactor {
			break
		}
		n, ok := t.nodes[id]
		if !ok || n.Status == NodeFailed {
			continue
		}
		out = append(out, *n)
	}
	return out
}
