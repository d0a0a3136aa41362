// message.go: the wire envelope exchanged between peers, encoded with
// github.com/vmihailenco/msgpack/v5 — chosen as the one documented wire
// format this package commits to, grounded on the paularlott-scriptling
// example's use of msgpack/v5 for compact binary encoding.
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0
package transport

import "github.com/vmihailenco/msgpack/v5"

// MessageKind identifies what a Message carries so a Transport can
// route it to the right Handler.
type MessageKind uint8

const (
	KindGet MessageKind = iota
	KindPut
	KindRemove
	KindGossip
	KindReply
	KindError
)

// Message is the envelope carried over the wire between coordinator
// and replica. Key/Value are opaque payloads the overlay has already
// serialized; NodeID and Sequence carry the sender's logical-clock
// Version for conflict resolution.
type Message struct {
	Kind     MessageKind
	Key      string
	Value    []byte
	NodeID   uint64
	Sequence uint64
	Err      string
}

// Marshal encodes m as msgpack.
func (m *Message) Marshal() ([]byte, error) {
	return msgpack.Marshal(m)
}

// Unmarshal decodes msgpack bytes into m.
func (m *Message) Unmarshal(data []byte) error {
	return msgpack.Unmarshal(data, m)
}
