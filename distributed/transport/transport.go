// Package transport provides the wire-level peer communication used by
// the distributed overlay: a small Transport interface plus a default
// length-prefixed framed-TCP implementation.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package transport

import "context"

// Handler processes one inbound Message and returns the reply payload
// to send back to the caller.
type Handler func(ctx context.Context, msg *Message) (*Message, error)

// Transport sends and receives Messages between cluster peers.
type Transport interface {
	// Start begins listening for inbound connections.
	Start() error
	// Stop closes the listener and any pooled outbound connections.
	Stop() error
	// SendOne delivers msg to addr and returns its reply.
	SendOne(ctx context.Context, addr string, msg *Message) (*Message, error)
	// BroadcastMany delivers msg to every address in addrs concurrently,
	// returning one reply (or error) per address in the same order.
	BroadcastMany(ctx context.Context, addrs []string, msg *Message) []Result
	// RegisterHandler installs the handler invoked for inbound
	// messages of the given kind.
	RegisterHandler(kind MessageKind, h Handler)
	// Stats reports connection and message counters.
	Stats() Stats
}

// Result pairs one peer's reply with any transport-level error talking
// to it.
type Result struct {
	Addr  string
	Reply *Message
	Err   error
}
