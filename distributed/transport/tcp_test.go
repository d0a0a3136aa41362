// tcp_test.go: integration tests for TCPTransport over a real loopback
// listener.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

// listenOnFreePort starts a TCPTransport on an OS-assigned loopback port
// and returns its actual dial address.
func listenOnFreePort(t *testing.T) (*TCPTransport, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close() // free the port; NewTCPTransport.Start rebinds it

	tr := NewTCPTransport(addr)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = tr.Stop() })
	return tr, addr
}

func TestTCPTransportSendOneRoundTrip(t *testing.T) {
	server, addr := listenOnFreePort(t)
	server.RegisterHandler(KindGet, func(_ context.Context, msg *Message) (*Message, error) {
		return &Message{Kind: KindReply, Value: []byte("pong for " + msg.Key)}, nil
	})

	client := NewTCPTransport("") // client-only, never Start()s a listener
	t.Cleanup(func() { _ = client.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := client.SendOne(ctx, addr, &Message{Kind: KindGet, Key: "k"})
	if err != nil {
		t.Fatalf("SendOne: %v", err)
	}
	if string(reply.Value) != "pong for k" {
		t.Errorf("reply.Value = %q, want %q", reply.Value, "pong for k")
	}
}

func TestTCPTransportUnregisteredKindRepliesWithError(t *testing.T) {
	server, addr := listenOnFreePort(t)
	_ = server

	client := NewTCPTransport("")
	t.Cleanup(func() { _ = client.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := client.SendOne(ctx, addr, &Message{Kind: KindRemove, Key: "k"})
	if err != nil {
		t.Fatalf("SendOne: %v", err)
	}
	if reply.Kind != KindError {
		t.Errorf("reply.Kind = %v, want KindError", reply.Kind)
	}
}

func TestTCPTransportSendOneToDeadAddrFails(t *testing.T) {
	client := NewTCPTransport("")
	t.Cleanup(func() { _ = client.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := client.SendOne(ctx, "127.0.0.1:1", &Message{Kind: KindGet, Key: "k"}); err == nil {
		t.Error("SendOne to an address with nothing listening should fail")
	}
}

func TestTCPTransportBroadcastManyReachesEveryAddr(t *testing.T) {
	server1, addr1 := listenOnFreePort(t)
	server1.RegisterHandler(KindGet, func(_ context.Context, msg *Message) (*Message, error) {
		return &Message{Kind: KindReply, Value: []byte("1")}, nil
	})
	server2, addr2 := listenOnFreePort(t)
	server2.RegisterHandler(KindGet, func(_ context.Context, msg *Message) (*Message, error) {
		return &Message{Kind: KindReply, Value: []byte("2")}, nil
	})

	client := NewTCPTransport("")
	t.Cleanup(func() { _ = client.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	results := client.BroadcastMany(ctx, []string{addr1, addr2}, &Message{Kind: KindGet})
	if len(results) != 2 {
		t.Fatalf("BroadcastMany returned %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("BroadcastMany to %s failed: %v", r.Addr, r.Err)
		}
	}
}

func TestTCPTransportStatsTrackSentAndReceived(t *testing.T) {
	server, addr := listenOnFreePort(t)
	server.RegisterHandler(KindGet, func(_ context.Context, msg *Message) (*Message, error) {
		return &Message{Kind: KindReply}, nil
	})

	client := NewTCPTransport("")
	t.Cleanup(func() { _ = client.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.SendOne(ctx, addr, &Message{Kind: KindGet}); err != nil {
		t.Fatalf("SendOne: %v", err)
	}

	stats := client.Stats()
	if stats.MessagesSent == 0 || stats.MessagesReceived == 0 {
		t.Errorf("client Stats() = %+v, want non-zero sent/received", stats)
	}
}
