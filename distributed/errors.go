// errors.go: distributed-overlay error codes, sharing the core
// package's go-errors taxonomy and JCACHEX_* code prefix convention
// rather than starting a parallel one.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package distributed

import (
	"github.com/jcachex/jcachex"
)

// NewErrNetworkPartition reports that fewer than the required quorum of
// replicas were reachable.
func NewErrNetworkPartition(reachable, total int) error {
	return jcachex.NewErrNetworkPartition(reachable, total)
}

// NewErrNodeUnreachable reports a single peer failing to respond.
func NewErrNodeUnreachable(nodeID string, cause error) error {
	return jcachex.NewErrNodeUnreachable(nodeID, cause)
}

// NewErrQuorumFailed reports that a read or write did not collect
// enough replica acknowledgements.
func NewErrQuorumFailed(required, acked, total int) error {
	return jcachex.NewErrQuorumFailed(required, acked, total)
}
