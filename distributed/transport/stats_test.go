// stats_test.go: tests for the Transport activity counters.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package transport

import "testing"

func TestStatCountersSnapshot(t *testing.T) {
	var c statCounters
	c.sent.Add(3)
	c.received.Add(2)
	c.errors.Add(1)
	c.conns.Add(5)

	got := c.snapshot()
	want := Stats{MessagesSent: 3, MessagesReceived: 2, SendErrors: 1, ActiveConns: 5}
	if got != want {
		t.Errorf("snapshot() = %+v, want %+v", got, want)
	}
}

func TestStatCountersSnapshotIsAZeroValueInitially(t *testing.T) {
	var c statCounters
	if got := c.snapshot(); got != (Stats{}) {
		t.Errorf("snapshot() of a fresh statCounters = %+v, want the zero value", got)
	}
}
