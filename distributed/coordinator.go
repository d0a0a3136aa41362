// coordinator.go: replica fan-out for Get/Put/Remove — the piece that
// turns a single-key request into parallel calls against the owning
// replica set, counts acknowledgements against the requested
// ConsistencyLevel, and optionally read-repairs stale replicas.
//
// Fan-out uses golang.org/x/sync/errgroup rather than a hand-rolled
// sync.WaitGroup + channel, the same choice loader.go makes for
// singleflight instead of hand-rolled inflight tracking.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package distributed

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jcachex/jcachex/distributed/transport"
)

// replicaResult is one replica's answer to a Get/Put/Remove request.
type replicaResult struct {
	node    Node
	version Version
	value   []byte
	found   bool
	err     error
}

// coordinator fans a single-key operation out to its owning replicas.
type coordinator struct {
	self      string
	topology  *Topology
	transport Transport
	cfg       Config
	metrics   *Metrics
	clock     *clock
}

// Transport is the subset of transport.Transport the coordinator needs,
// declared locally so this package doesn't have to import the
// transport package's concrete type into its own public signatures.
type Transport interface {
	SendOne(ctx context.Context, addr string, msg *transport.Message) (*transport.Message, error)
	RegisterHandler(kind transport.MessageKind, h transport.Handler)
	Start() error
	Stop() error
	Stats() transport.Stats
}

func newCoordinator(selfID string, topo *Topology, tr Transport, cfg Config, metrics *Metrics) *coordinator {
	return &coordinator{
		self:      selfID,
		topology:  topo,
		transport: tr,
		cfg:       cfg,
		metrics:   metrics,
		clock:     newClock(hashNodeID(selfID)),
	}
}

// get reads key from its owning replicas and returns the newest
// version found, satisfying level's required acknowledgement count.
func (c *coordinator) get(ctx context.Context, key string, level ConsistencyLevel, localGet func(key string) ([]byte, Version, bool)) ([]byte, Version, bool, error) {
	owners := c.topology.Owners(key, c.cfg.ReplicationFactor)
	if len(owners) == 0 {
		return nil, Version{}, false, NewErrNetworkPartition(0, c.cfg.ReplicationFactor)
	}

	required := level.required(len(owners))
	results := c.fanOut(ctx, owners, func(ctx context.Context, n Node) replicaResult {
		if n.ID == c.self {
			value, version, found := localGet(key)
			return replicaResult{node: n, version: version, value: value, found: found}
		}
		msg := &transport.Message{Kind: transport.KindGet, Key: key}
		reply, err := c.transport.SendOne(ctx, n.Addr, msg)
		if err != nil {
			c.metrics.incReplicaError()
			return replicaResult{node: n, err: err}
		}
		if reply.Kind == transport.KindError {
			return replicaResult{node: n, found: false}
		}
		return replicaResult{
			node:    n,
			version: Version{NodeID: reply.NodeID, Sequence: reply.Sequence},
			value:   reply.Value,
			found:   len(reply.Value) > 0,
		}
	})

	acked := 0
	var best replicaResult
	haveBest := false
	for _, r := range results {
		if r.err != nil {
			continue
		}
		acked++
		if !haveBest || (r.found && r.version.After(best.version)) {
			best = r
			haveBest = true
		}
	}

	if acked < required {
		c.metrics.incQuorumFailure()
		return nil, Version{}, false, NewErrQuorumFailed(required, acked, len(owners))
	}
	c.metrics.incQuorumRead()

	if c.cfg.ReadRepair && haveBest && best.found {
		c.readRepair(ctx, key, best, results)
	}

	if !haveBest || !best.found {
		return nil, Version{}, false, nil
	}
	return best.value, best.version, true, nil
}

// put writes value to key's owning replicas, assigning a fresh Version
// from this node's logical clock.
func (c *coordinator) put(ctx context.Context, key string, value []byte, level ConsistencyLevel, localPut func(key string, value []byte, v Version)) (Version, error) {
	owners := c.topology.Owners(key, c.cfg.ReplicationFactor)
	if len(owners) == 0 {
		return Version{}, NewErrNetworkPartition(0, c.cfg.ReplicationFactor)
	}
	version := c.clock.next()
	required := level.required(len(owners))

	results := c.fanOut(ctx, owners, func(ctx context.Context, n Node) replicaResult {
		if n.ID == c.self {
			localPut(key, value, version)
			return replicaResult{node: n}
		}
		msg := &transport.Message{Kind: transport.KindPut, Key: key, Value: value, NodeID: version.NodeID, Sequence: version.Sequence}
		_, err := c.transport.SendOne(ctx, n.Addr, msg)
		if err != nil {
			c.metrics.incReplicaError()
		}
		return replicaResult{node: n, err: err}
	})

	acked := 0
	for _, r := range results {
		if r.err == nil {
			acked++
		}
	}
	if acked < required {
		c.metrics.incQuorumFailure()
		return version, NewErrQuorumFailed(required, acked, len(owners))
	}
	c.metrics.incQuorumWrite()
	return version, nil
}

func (c *coordinator) readRepair(ctx context.Context, key string, best replicaResult, results []replicaResult) {
	for _, r := range results {
		if r.err != nil || r.node.ID == best.node.ID || r.node.ID == c.self {
			continue
		}
		if !r.found || best.version.After(r.version) {
			msg := &transport.Message{Kind: transport.KindPut, Key: key, Value: best.value, NodeID: best.version.NodeID, Sequence: best.version.Sequence}
			go func(addr string) {
				_, _ = c.transport.SendOne(ctx, addr, msg)
			}(r.node.Addr)
			c.metrics.incReadRepair()
		}
	}
}

func (c *coordinator) fanOut(ctx context.Context, owners []Node, call func(ctx context.Context, n Node) replicaResult) []replicaResult {
	results := make([]replicaResult, len(owners))
	g, _ := errgroup.WithContext(ctx)
	for i, n := range owners {
		i, n := i, n
		g.Go(func() error {
			callCtx := ctx
			if c.cfg.RequestTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
				defer cancel()
			}
			results[i] = call(callCtx, n) // distinct index per goroutine, no shared mutation
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func hashNodeID(id string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= 1099511628211
	}
	return h
}
