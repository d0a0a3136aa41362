// stats.go: connection and message counters for a Transport.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package transport

import "sync/atomic"

// Stats is a point-in-time snapshot of a Transport's activity.
type Stats struct {
	MessagesSent     uint64
	MessagesReceived uint64
	SendErrors       uint64
	ActiveConns      int64
}

type statCounters struct {
	sent     atomic.Uint64
	received atomic.Uint64
	errors   atomic.Uint64
	conns    atomic.Int64
}

func (c *statCounters) snapshot() Stats {
	return Stats{
		MessagesSent:     c.sent.Load(),
		MessagesReceived: c.received.Load(),
		SendErrors:       c.errors.Load(),
		ActiveConns:      c.conns.Load(),
	}
}
