// overlay.go: the public facade layering partitioning, replication, and
// tunable consistency over a set of local jcachex.Cache instances
// reachable over the transport package's framed-TCP default.
//
// Follows the Cache[K,V] facade's construction/option-normalization
// style (../cache.go), generalized from one local cache to a
// coordinator fanning requests out across the replica set the ring
// assigns each key to.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package distributed

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jcachex/jcachex"
	"github.com/jcachex/jcachex/distributed/transport"
)

// replicaValue is what each local Cache instance actually stores:
// the serialized payload plus the logical clock Version it was
// written with, so a later quorum read can pick the newest replica.
type replicaValue struct {
	Value   []byte
	Version Version
}

// Overlay is a distributed, replicated cache of values of type V,
// keyed by string (string keys are required since keys travel over the
// wire to remote replicas).
type Overlay[V any] struct {
	cfg         Config
	topology    *Topology
	transport   Transport
	coordinator *coordinator
	local       *jcachex.Cache[string, replicaValue]
	metrics     *Metrics
}

// NewOverlay constructs an Overlay, starting its transport listener and
// joining this node to its own topology view.
func NewOverlay[V any](cfg Config) (*Overlay[V], error) {
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	local, err := jcachex.New(jcachex.DefaultConfig[string, replicaValue]())
	if err != nil {
		return nil, err
	}

	var tr Transport
	if cfg.Transport != nil {
		tr = cfg.Transport
	} else {
		tr = transport.NewTCPTransport(cfg.SelfAddr)
	}

	topo := NewTopology(cfg.VirtualNodes)
	topo.Join(Node{ID: cfg.SelfID, Addr: cfg.SelfAddr, Status: NodeHealthy})

	o := &Overlay[V]{
		cfg:       cfg,
		topology:  topo,
		transport: tr,
		local:     local,
		metrics:   NewMetrics(cfg.Registerer),
	}
	o.coordinator = newCoordinator(cfg.SelfID, topo, tr, cfg, o.metrics)

	tr.RegisterHandler(transport.KindGet, o.handleGet)
	tr.RegisterHandler(transport.KindPut, o.handlePut)
	tr.RegisterHandler(transport.KindRemove, o.handleRemove)

	if err := tr.Start(); err != nil {
		return nil, err
	}
	return o, nil
}

// Join adds a peer to this node's view of the cluster.
func (o *Overlay[V]) Join(n Node) { o.topology.Join(n) }

// Leave removes a peer from this node's view of the cluster.
func (o *Overlay[V]) Leave(nodeID string) { o.topology.Leave(nodeID) }

// Members returns every node this overlay currently knows about.
func (o *Overlay[V]) Members() []Node { return o.topology.Members() }

// Get reads key at the overlay's default ConsistencyLevel.
func (o *Overlay[V]) Get(ctx context.Context, key string) (V, bool, error) {
	return o.GetAt(ctx, key, o.cfg.ConsistencyLevel)
}

// GetAt reads key, requiring level's acknowledgement count from the
// owning replica set.
func (o *Overlay[V]) GetAt(ctx context.Context, key string, level ConsistencyLevel) (V, bool, error) {
	var zero V
	data, _, found, err := o.coordinator.get(ctx, key, level, o.localGet)
	if err != nil {
		return zero, false, err
	}
	if !found {
		return zero, false, nil
	}
	var value V
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return zero, false, jcachex.NewErrSerializationFailed(err, "distributed.Overlay.Get")
	}
	return value, true, nil
}

// Put writes value under key at the overlay's default ConsistencyLevel.
func (o *Overlay[V]) Put(ctx context.Context, key string, value V) error {
	return o.PutAt(ctx, key, value, o.cfg.ConsistencyLevel)
}

// PutAt writes value under key, requiring level's acknowledgement
// count from the owning replica set.
func (o *Overlay[V]) PutAt(ctx context.Context, key string, value V, level ConsistencyLevel) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return jcachex.NewErrSerializationFailed(err, "distributed.Overlay.Put")
	}
	_, err = o.coordinator.put(ctx, key, data, level, o.localPut)
	return err
}

// Remove deletes key from every owning replica.
func (o *Overlay[V]) Remove(ctx context.Context, key string) error {
	owners := o.topology.Owners(key, o.cfg.ReplicationFactor)
	if len(owners) == 0 {
		return NewErrNetworkPartition(0, o.cfg.ReplicationFactor)
	}
	results := o.coordinator.fanOut(ctx, owners, func(ctx context.Context, n Node) replicaResult {
		if n.ID == o.cfg.SelfID {
			o.local.Remove(key)
			return replicaResult{node: n}
		}
		_, err := o.transport.SendOne(ctx, n.Addr, &transport.Message{Kind: transport.KindRemove, Key: key})
		return replicaResult{node: n, err: err}
	})
	for _, r := range results {
		if r.err != nil {
			return fmt.Errorf("distributed: remove on %s: %w", r.node.ID, r.err)
		}
	}
	return nil
}

// Stats returns the local replica's cache statistics.
func (o *Overlay[V]) Stats() jcachex.Stats { return o.local.Stats() }

// Close stops the transport listener.
func (o *Overlay[V]) Close() error { return o.transport.Stop() }

func (o *Overlay[V]) localGet(key string) ([]byte, Version, bool) {
	rv, ok := o.local.Get(key)
	if !ok {
		return nil, Version{}, false
	}
	return rv.Value, rv.Version, true
}

func (o *Overlay[V]) localPut(key string, value []byte, v Version) {
	if cur, ok := o.local.Get(key); ok && cur.Version.After(v) {
		return // keep the newer version already stored
	}
	o.local.Put(key, replicaValue{Value: value, Version: v})
}

func (o *Overlay[V]) handleGet(_ context.Context, msg *transport.Message) (*transport.Message, error) {
	rv, ok := o.local.Get(msg.Key)
	if !ok {
		return &transport.Message{Kind: transport.KindReply, Key: msg.Key}, nil
	}
	return &transport.Message{
		Kind:     transport.KindReply,
		Key:      msg.Key,
		Value:    rv.Value,
		NodeID:   rv.Version.NodeID,
		Sequence: rv.Version.Sequence,
	}, nil
}

func (o *Overlay[V]) handlePut(_ context.Context, msg *transport.Message) (*transport.Message, error) {
	o.localPut(msg.Key, msg.Value, Version{NodeID: msg.NodeID, Sequence: msg.Sequence})
	return &transport.Message{Kind: transport.KindReply, Key: msg.Key}, nil
}

func (o *Overlay[V]) handleRemove(_ context.Context, msg *transport.Message) (*transport.Message, error) {
	o.local.Remove(msg.Key)
	return &transport.Message{Kind: transport.KindReply, Key: msg.Key}, nil
}
