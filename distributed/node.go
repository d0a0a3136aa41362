// node.go: cluster membership — a peer in the replica set and its
// health status as observed by this process.
//
// Node identifiers use github.com/google/uuid (NewV7, time-ordered),
// grounded on the calvinalkan-agent-task store package's uuid.NewV7
// usage for stable, sortable entity IDs.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package distributed

import (
	"time"

	"github.com/google/uuid"
)

// NodeStatus is the observed health of a peer.
type NodeStatus int

const (
	NodeHealthy NodeStatus = iota
	NodeDegraded
	NodeUnreachable
	NodeFailed
)

func (s NodeStatus) String() string {
	switch s {
	case NodeHealthy:
		return "healthy"
	case NodeDegraded:
		return "degraded"
	case NodeUnreachable:
		return "unreachable"
	case NodeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Node describes one member of the replica set.
type Node struct {
	ID       string
	Addr     string
	Status   NodeStatus
	LastSeen time.Time
}

// NewNodeID generates a time-ordered node identifier.
func NewNodeID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
